package main

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/quic-go/quic-go"
	"golang.org/x/sync/errgroup"

	"bken/receiver/internal/config"
	"bken/receiver/internal/fec"
	"bken/receiver/internal/packet"
	"bken/receiver/internal/rlog"
	"bken/receiver/internal/rtpwire"
)

// Ingress owns the two QUIC datagram listeners (source, repair) that feed
// packets into the pipeline via the writer handles CreateEndpoint
// returned. Each listener is its own goroutine, supervised by an
// errgroup so one side failing tears the other down cleanly — the network
// threads expressed as goroutines instead of OS threads.
type Ingress struct {
	cfg          config.ReceiverConfig
	sourceWriter *packet.Writer
	repairWriter *packet.Writer
}

// NewIngress constructs an Ingress that will route decoded packets to the
// given writer handles.
func NewIngress(cfg config.ReceiverConfig, sourceWriter, repairWriter *packet.Writer) (*Ingress, error) {
	return &Ingress{cfg: cfg, sourceWriter: sourceWriter, repairWriter: repairWriter}, nil
}

// Run starts both listeners and blocks until ctx is cancelled or either
// listener fails.
func (in *Ingress) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return in.listen(ctx, in.cfg.ListenSource, in.sourceWriter, "source")
	})
	g.Go(func() error {
		return in.listen(ctx, in.cfg.ListenRepair, in.repairWriter, "repair")
	})

	return g.Wait()
}

func (in *Ingress) listen(ctx context.Context, addr string, w *packet.Writer, label string) error {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true, // loopback demo listener; real deployments supply a proper cert
		NextProtos:         []string{"bken-receiver"},
	}

	listener, err := quic.ListenAddr(addr, tlsConf, &quic.Config{
		MaxIdleTimeout:  30 * time.Second,
		EnableDatagrams: true,
	})
	if err != nil {
		return err
	}
	defer listener.Close()

	rlog.Area("ingress").Infof("listening for %s packets on %s", label, addr)

	for {
		conn, err := listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			rlog.Area("ingress").Warnf("%s accept error: %v", label, err)
			continue
		}
		go in.serveConn(ctx, conn, w, label)
	}
}

func (in *Ingress) serveConn(ctx context.Context, conn *quic.Conn, w *packet.Writer, label string) {
	remote := conn.RemoteAddr().String()
	for {
		raw, err := conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() == nil {
				rlog.Area("ingress").Debugf("%s connection from %s closed: %v", label, remote, err)
			}
			return
		}

		var p *packet.Packet
		if label == "repair" {
			p, err = fec.ParseRepair(raw, remote, time.Now())
		} else {
			p, err = rtpwire.Parse(raw, remote, time.Now())
		}
		if err != nil {
			rlog.Area("ingress").Debugf("%s bad packet from %s: %v", label, remote, err)
			continue
		}

		if res := w.Write(p); res != packet.WriteOK {
			rlog.Area("ingress").Debugf("%s packet from %s dropped: %v", label, remote, res)
		}
	}
}
