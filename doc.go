// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tcpstream establishes configured TCP streams to logical endpoints.
//
// A Factory resolves a host to its candidate addresses, tries them one at a
// time in resolver order, and returns the first connection that succeeds.
// Every attempt races the connect handshake against the caller's context and
// a per-attempt deadline: exactly one of the three wins, and a connection that
// completes after the race was lost is closed instead of returned.
//
// # Usage
//
//	factory := tcpstream.New(
//	    tcpstream.WithConnectTimeout(5 * time.Second),
//	    tcpstream.WithReadTimeout(30 * time.Second),
//	)
//
//	stream, err := factory.CreateStream(ctx, tcpstream.HostTarget("db.internal", 27017))
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
// The factory also exposes DialContext, so it can back an http.Transport or a
// gRPC client:
//
//	conn, err := grpc.NewClient("passthrough:///db.internal:443",
//	    grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
//	        return factory.DialContext(ctx, "tcp", addr)
//	    }),
//	)
package tcpstream
