package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/strand-dev/strand/pkg/async"
	"github.com/strand-dev/strand/pkg/errs"
	"github.com/strand-dev/strand/pkg/packet"
	"github.com/strand-dev/strand/pkg/protocol"
)

func echoCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "echo",
		Short: "Run a loopback echo peer",
		Long: `Runs a development peer that answers a fixed method set on the
object "echo": Add(u32,u32)->u32, Echo(str)->str, and Sleep(u64 ms)->unit.
Sleep honors the propagated request deadline and out-of-band cancellation,
which makes the peer useful for exercising timeout and cancel paths.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEchoPeer(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:7420", "listen address")
	return cmd
}

func runEchoPeer(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log := slog.Default().With("component", "echo-peer")
	log.Info("listening", "addr", addr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		log.Info("shutting down")
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return nil
		}
		go serveEchoConn(conn, log)
	}
}

// serveEchoConn answers frames on one connection until it breaks.
func serveEchoConn(conn net.Conn, log *slog.Logger) {
	defer conn.Close()
	log.Info("peer connected", "remote", conn.RemoteAddr())

	proto := packet.NewStreamProtocol()

	// In-flight request contexts, cancelled by CANCEL_REQUEST frames.
	var mu sync.Mutex
	inflight := map[uint32]*async.Context{}

	for {
		payload, err := proto.Receive(conn)
		if err != nil {
			log.Info("peer disconnected", "error", err)
			return
		}
		d := protocol.NewDecoder(payload)
		kind, id, err := protocol.DecodeMessageHeader(d)
		if err != nil {
			log.Warn("bad frame", "error", err)
			return
		}

		switch kind {
		case protocol.MessageRequest:
			hdr, args, err := protocol.DecodeRequestHeader(d)
			if err != nil {
				log.Warn("bad request", "request_id", id, "error", err)
				return
			}

			reqCtx := async.NewFromRecord(nil, &hdr.Context)
			mu.Lock()
			inflight[id] = reqCtx
			mu.Unlock()

			go func() {
				defer func() {
					mu.Lock()
					delete(inflight, id)
					mu.Unlock()
					reqCtx.Detach()
				}()

				value, herr := dispatchEcho(reqCtx, hdr, args)
				res := protocol.NewEncoder()
				if herr != nil {
					protocol.EncodeResultErr(res, herr)
				} else {
					protocol.EncodeResultOK(res, value)
				}
				out := protocol.NewEncoder()
				protocol.EncodeResponse(out, id, res.Bytes())
				if err := proto.Send(conn, out.Bytes()); err != nil {
					log.Warn("response not sent", "request_id", id, "error", err)
				}
			}()

		case protocol.MessageCancelRequest:
			mu.Lock()
			if reqCtx, ok := inflight[id]; ok {
				reqCtx.Cancel()
			}
			mu.Unlock()

		default:
			log.Warn("unexpected message kind", "kind", kind)
			return
		}
	}
}

// dispatchEcho runs one method of the fixed echo object.
func dispatchEcho(ctx *async.Context, hdr *protocol.RequestHeader, args []byte) ([]byte, error) {
	if hdr.ObjectName != "echo" {
		return nil, errs.Newf(errs.KindNotFound, "unknown object %q", hdr.ObjectName)
	}

	switch hdr.MethodName {
	case "Add":
		var a, b protocol.U32
		if err := protocol.DecodeArgs(args, &a, &b); err != nil {
			return nil, err
		}
		return protocol.EncodeArgs(a + b), nil

	case "Echo":
		var s protocol.Str
		if err := protocol.DecodeArgs(args, &s); err != nil {
			return nil, err
		}
		return protocol.EncodeArgs(s), nil

	case "Sleep":
		var ms protocol.U64
		if err := protocol.DecodeArgs(args, &ms); err != nil {
			return nil, err
		}
		// Cooperative sleep: the caller's deadline and cancellation cut
		// it short through the propagated context.
		if _, err := async.Select(ctx, async.Timeout(time.Duration(ms)*time.Millisecond)); err != nil {
			return nil, err
		}
		return protocol.EncodeArgs(protocol.Unit{}), nil

	default:
		return nil, errs.Newf(errs.KindNotImplemented, "unknown method %q", hdr.MethodName)
	}
}
