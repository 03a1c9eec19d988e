// Package pb defines the wire contract of the catpoint SecurityService.
//
// Messages are protobuf well-known types: structpb.Struct carries states,
// sensors and events, wrapperspb carries scalar requests. The service
// descriptor, server registration and client stub are declared by hand
// against grpc-go, and the conversions between domain values and structs
// live next to them so the transport and the state file share one encoding.
package pb
