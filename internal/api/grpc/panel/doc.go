// Package panel implements the gRPC control panel transport of SafeHome.
//
// The service is declared by hand on top of the protobuf well-known types:
// every call carries a google.protobuf.Struct request and answers with a
// google.protobuf.Struct, so no generated code is required on either side.
// Domain errors are mapped to gRPC status codes.
package panel
