// SPDX-License-Identifier: BSD-3-Clause

// Package operator provides a service orchestrator that manages and
// supervises the control-loop core's services in a fault-tolerant manner.
// It acts as the central coordinator, handling service lifecycle
// management, inter-process communication setup, and providing a
// supervision tree for automatic service recovery.
//
// The operator service is the main entry point for coolerd and is
// responsible for starting, monitoring, and coordinating speedmgr,
// modemgr, alertmgr and lcdmgr. It implements a robust supervision
// strategy that automatically restarts failed services and maintains
// control-loop stability.
//
// # Core Features
//
//   - Service lifecycle management and orchestration
//   - Fault-tolerant supervision with automatic restart policies
//   - Inter-process communication coordination via NATS
//   - Configurable service selection and ordering
//   - OpenTelemetry integration for observability
//   - Graceful shutdown handling
//
// # Architecture
//
// The operator follows a supervision tree pattern where services are organized
// in a hierarchical structure with well-defined restart policies. The operator
// itself acts as the root supervisor, managing child services and handling
// their failures according to configured strategies.
//
// The supervision tree includes:
//   - IPC service (highest priority, started first)
//   - Speed manager (Graph/Mix/Overlay commanders and the main loop)
//   - Mode manager (mode activation)
//   - Alert manager (alert state machine)
//   - LCD manager (single-temp and carousel scheduling)
//   - Additional custom services
//
// # Configuration
//
// The operator supports extensive configuration through the options pattern.
// Services can be selectively enabled, disabled, or customized:
//
//	op := operator.New(
//		operator.WithName("coolerd"),
//		operator.WithTimeout(30*time.Second),
//		operator.WithIPC(
//			ipc.WithServiceName("coolerd-ipc"),
//			ipc.WithStoreDir("/var/lib/coolerd/ipc"),
//		),
//		operator.WithExtraServices(myCustomService),
//	)
//
// # Supervision and Fault Tolerance
//
// The operator implements a robust supervision strategy:
//
//   - Transient restart policy: services are restarted on failure
//   - Configurable timeouts for service startup and shutdown
//   - Isolation: service failures don't affect other services
//   - Logging and monitoring of all service state changes
//
// # Inter-Process Communication
//
// The operator coordinates IPC setup for all services:
//
//   - Starts the IPC service first to provide communication infrastructure
//   - Provides connection providers to all other services
//   - Handles IPC service failures and recovery
//   - Supports both embedded and external IPC configurations
//
// # Usage Patterns
//
// The simplest way to use the operator is with default configuration:
//
//	op := operator.New()
//	err := op.Run(ctx, nil)
//
// For production deployments, services are typically customized:
//
//	op := operator.New(
//		operator.WithName("coolerd"),
//		operator.WithTimeout(15*time.Second),
//		operator.WithSpeedmgr(
//			speedmgr.WithTickInterval(time.Second),
//		),
//	)
//
// When integrating with external IPC infrastructure:
//
//	err := op.Run(ctx, externalIPCConn)
//
// Custom services can be added to the supervision tree:
//
//	myService := &MyCustomService{}
//	op := operator.New(
//		operator.WithExtraServices(myService),
//	)
//
// # Service Dependencies
//
// The operator manages service dependencies automatically:
//
//  1. IPC service starts first (communication infrastructure)
//  2. speedmgr, modemgr, alertmgr and lcdmgr start in parallel
//
// Services communicate with each other through the IPC infrastructure once
// all services are running and ready.
package operator
