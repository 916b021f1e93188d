// Copyright (c) scoreboard-hub contributors.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package sources

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/scorehub/ingest-hub/internal/protocol"
	"github.com/scorehub/ingest-hub/internal/store"
	"github.com/scorehub/ingest-hub/pkg/log"
	"github.com/scorehub/ingest-hub/pkg/schema"
)

const (
	tcpConnectTimeout = 5 * time.Second
	readTimeout       = time.Second
	backoffBase       = time.Second
	backoffCap        = 10 * time.Second
)

// Sink receives a decoded packet from a worker and records it, applying
// that source's configured sport override first.
type Sink struct {
	Store    *store.Store
	Registry *Registry
}

func (s *Sink) handle(packet []byte, sourceID string) {
	sport, parsed := protocol.Identify(packet)
	if sport == "" || parsed == nil {
		return
	}
	if s.Registry != nil {
		if override := s.Registry.OverrideFor(sourceID, sport); override != "" {
			sport, parsed = ApplyOverride(sport, parsed, override)
		}
	}
	s.Store.Record(sport, parsed, sourceID)
}

// Manager owns every running source worker: the outbound TCP clients keyed
// by source id, the inbound listeners, and the optional serial reader.
type Manager struct {
	sink *Sink

	mu      sync.Mutex
	clients map[string]context.CancelFunc
	wg      sync.WaitGroup

	netCancel context.CancelFunc
	netWG     sync.WaitGroup

	serialCancel context.CancelFunc
	serialWG     sync.WaitGroup
}

// NewManager returns a Manager that records decoded packets into sink.
func NewManager(sink *Sink) *Manager {
	return &Manager{sink: sink, clients: make(map[string]context.CancelFunc)}
}

// --- Serial reader ---

// StartSerial opens portName at 9600-8N1 and reads from it until StopSerial
// is called or the port errors out. Only one serial reader runs at a time;
// starting a new one stops the previous.
func (m *Manager) StartSerial(portName string) {
	m.StopSerial()

	ctx, cancel := context.WithCancel(context.Background())
	m.serialCancel = cancel
	m.serialWG.Add(1)
	go func() {
		defer m.serialWG.Done()
		m.serialReader(ctx, portName)
	}()
}

// StopSerial signals the running serial reader to exit and waits briefly.
func (m *Manager) StopSerial() {
	if m.serialCancel == nil {
		return
	}
	m.serialCancel()
	waitWithTimeout(&m.serialWG, 2*time.Second)
	m.serialCancel = nil
}

func (m *Manager) serialReader(ctx context.Context, portName string) {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit})
	if err != nil {
		log.Errorf("sources: failed to open serial port %s: %v", portName, err)
		return
	}
	defer port.Close()
	_ = port.SetReadTimeout(readTimeout)

	sourceID := fmt.Sprintf("serial:%s", portName)
	framer := protocol.NewFramer()
	buf := make([]byte, 256)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := port.Read(buf)
		if err != nil {
			log.Errorf("sources: serial read error on %s: %v", portName, err)
			return
		}
		if n == 0 {
			continue
		}
		for _, packet := range framer.Feed(buf[:n]) {
			m.sink.handle(packet, sourceID)
		}
	}
}

// --- Outbound TCP client ---

// StartTCPClient starts (or no-ops if already running) the reconnecting
// outbound worker for source.
func (m *Manager) StartTCPClient(source schema.ConfiguredSource) {
	m.mu.Lock()
	if _, running := m.clients[source.ID]; running {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.clients[source.ID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.tcpClientWorker(ctx, source)
	}()
}

// StopTCPClient signals id's worker to exit and returns without waiting
// for it to finish; only Shutdown waits (briefly) for outbound workers.
func (m *Manager) StopTCPClient(id string) {
	m.mu.Lock()
	cancel, ok := m.clients[id]
	delete(m.clients, id)
	m.mu.Unlock()

	if ok {
		cancel()
	}
}

func (m *Manager) tcpClientWorker(ctx context.Context, source schema.ConfiguredSource) {
	addr := fmt.Sprintf("%s:%d", source.Host, source.Port)
	backoff := backoffBase

	for ctx.Err() == nil {
		conn, err := net.DialTimeout("tcp", addr, tcpConnectTimeout)
		if err != nil {
			log.Warnf("sources: connect error for %s: %v", source.ID, err)
		} else {
			log.Infof("sources: connected to TCP source %s", source.ID)
			backoff = backoffBase
			readLoop(ctx, conn, source.ID, m.sink)
			conn.Close()
		}

		if ctx.Err() != nil {
			return
		}
		if sleepCancellable(ctx, backoff) {
			return
		}
		backoff *= 2
		if backoff > backoffCap {
			backoff = backoffCap
		}
	}
}

// readLoop feeds a connection's bytes through a fresh Framer until it
// errors, returns EOF, or ctx is cancelled.
func readLoop(ctx context.Context, conn net.Conn, sourceID string, sink *Sink) {
	framer := protocol.NewFramer()
	buf := make([]byte, 4096)

	for {
		if ctx.Err() != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		if n == 0 {
			return
		}
		for _, packet := range framer.Feed(buf[:n]) {
			sink.handle(packet, sourceID)
		}
	}
}

// sleepCancellable waits for d or ctx cancellation, whichever comes first.
// Returns true if ctx was cancelled.
func sleepCancellable(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-t.C:
		return false
	}
}

func waitWithTimeout(wg *sync.WaitGroup, d time.Duration) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
	}
}

// --- Inbound network listeners ---

// ListenMode selects which inbound listeners StartNetworkListeners runs.
type ListenMode string

const (
	ModeSerial ListenMode = "serial"
	ModeTCP    ListenMode = "tcp"
	ModeUDP    ListenMode = "udp"
	ModeAuto   ListenMode = "auto"
)

// StartNetworkListeners starts the inbound TCP and/or UDP listeners named
// by mode. Call StopNetworkListeners before starting again.
func (m *Manager) StartNetworkListeners(tcpPort, udpPort int, mode ListenMode) {
	ctx, cancel := context.WithCancel(context.Background())
	m.netCancel = cancel

	if mode == ModeTCP || mode == ModeAuto {
		m.netWG.Add(1)
		go func() {
			defer m.netWG.Done()
			m.tcpListener(ctx, tcpPort)
		}()
	}
	if mode == ModeUDP || mode == ModeAuto {
		m.netWG.Add(1)
		go func() {
			defer m.netWG.Done()
			m.udpListener(ctx, udpPort)
		}()
	}
}

// StopNetworkListeners signals both listeners to exit and waits briefly.
func (m *Manager) StopNetworkListeners() {
	if m.netCancel == nil {
		return
	}
	m.netCancel()
	waitWithTimeout(&m.netWG, 2*time.Second)
	m.netCancel = nil
}

func (m *Manager) tcpListener(ctx context.Context, port int) {
	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		log.Errorf("sources: failed to start TCP listener on %d: %v", port, err)
		return
	}
	defer ln.Close()
	log.Infof("sources: TCP listener bound to 0.0.0.0:%d", port)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var conns sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warnf("sources: TCP accept error: %v", err)
			break
		}
		conns.Add(1)
		go func() {
			defer conns.Done()
			defer conn.Close()
			addr := conn.RemoteAddr().String()
			readLoop(ctx, conn, fmt.Sprintf("tcp:%s", addr), m.sink)
		}()
	}
	conns.Wait()
}

func (m *Manager) udpListener(ctx context.Context, port int) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		log.Errorf("sources: failed to start UDP listener on %d: %v", port, err)
		return
	}
	defer conn.Close()
	log.Infof("sources: UDP listener bound to 0.0.0.0:%d", port)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	framer := protocol.NewFramer()
	buf := make([]byte, 4096)
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			return
		}
		sourceID := fmt.Sprintf("udp:%s:%d", peer.IP, peer.Port)
		for _, packet := range framer.Feed(buf[:n]) {
			m.sink.handle(packet, sourceID)
		}
	}
}

// Shutdown stops every running worker: serial reader, network listeners,
// and every outbound TCP client.
func (m *Manager) Shutdown() {
	m.StopSerial()
	m.StopNetworkListeners()

	m.mu.Lock()
	ids := make([]string, 0, len(m.clients))
	for id := range m.clients {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.StopTCPClient(id)
	}
	waitWithTimeout(&m.wg, 2*time.Second)
}
