// SPDX-License-Identifier: BSD-3-Clause

// Package ipc provides an in-process NATS server for inter-process
// communication between the control-loop core's services. This service
// acts as the central message bus for speedmgr, modemgr, alertmgr and
// lcdmgr.
//
// The IPC service creates and manages a NATS server instance that runs
// embedded within the coolerd process, eliminating the need for an
// external NATS server dependency. It provides JetStream capabilities
// for persistent messaging and state management across components.
//
// # Core Features
//
//   - Embedded NATS server with JetStream support
//   - In-process connection provider for other services
//   - Configurable server options and storage directories
//   - Graceful startup and shutdown handling
//   - Integration with the coolerd service framework
//
// # Usage
//
// The IPC service is started first by service/operator, since every
// other service depends on it for communication:
//
//	ipcService := ipc.New(
//		ipc.WithServiceName("ipc"),
//		ipc.WithStoreDir("/var/lib/coolerd/ipc"),
//		ipc.WithJetStream(true),
//	)
//
//	// Start the service
//	err := ipcService.Run(ctx, nil)
//
// Other services obtain connection providers to communicate through the IPC:
//
//	connProvider := ipcService.GetConnProvider()
//	conn, err := connProvider.InProcessConn()
//	if err != nil {
//		// Handle connection error
//	}
//
// # Configuration
//
// The IPC service can be configured with various options:
//
//   - WithServiceName: Set the service name
//   - WithStoreDir: Set JetStream storage directory
//   - WithJetStream: Enable/disable JetStream
//   - WithMaxMemory / WithMaxStorage: JetStream resource limits
//
// # Architecture
//
// The IPC service follows the standard coolerd service pattern:
//
//   - Implements the service.Service interface
//   - Provides a Run method for lifecycle management
//   - Supports graceful shutdown via context cancellation
//   - Integrates with the global logging system
//
// The service creates an embedded NATS server that other services connect
// to using in-process connections, providing high-performance message
// passing without network overhead.
package ipc
