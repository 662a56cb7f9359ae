package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"crypto-investigation-engine/internal/domain/entity"
	"crypto-investigation-engine/internal/infrastructure/config"
	"crypto-investigation-engine/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSConsumer receives investigation requests over NATS and hands them to
// the worker pool through a buffered channel.
type NATSConsumer struct {
	conn    *nats.Conn
	sub     *nats.Subscription
	config  *config.NATSConfig
	logger  *logger.Logger
	reqChan chan *entity.InvestigationRequest

	mu        sync.Mutex
	isRunning bool
}

// NewNATSConsumer creates a new NATS consumer
func NewNATSConsumer(cfg *config.NATSConfig, logger *logger.Logger) *NATSConsumer {
	return &NATSConsumer{
		config:  cfg,
		logger:  logger.WithComponent("nats-consumer"),
		reqChan: make(chan *entity.InvestigationRequest, cfg.MaxPendingRequests),
	}
}

// Connect connects to the NATS server and subscribes to the request subject
func (n *NATSConsumer) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	opts := []nats.Option{
		nats.Name("investigation-engine"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	n.conn = conn

	// queue group so multiple engine instances share the request load
	sub, err := conn.QueueSubscribe(n.config.Subject, n.config.ConsumerGroup, n.handleMessage)
	if err != nil {
		conn.Close()
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	n.sub = sub

	n.mu.Lock()
	n.isRunning = true
	n.mu.Unlock()

	n.logger.Info("Subscribed to investigation requests",
		zap.String("subject", n.config.Subject),
		zap.String("queue_group", n.config.ConsumerGroup))
	return nil
}

// handleMessage decodes one request and queues it for the worker pool
func (n *NATSConsumer) handleMessage(msg *nats.Msg) {
	var req entity.InvestigationRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		n.logger.Error("Failed to unmarshal investigation request", zap.Error(err))
		if msg.Reply != "" {
			msg.Respond([]byte(`{"error":"malformed request"}`))
		}
		return
	}
	if req.Address == "" {
		n.logger.Warn("Dropping request without address")
		return
	}

	select {
	case n.reqChan <- &req:
		n.logger.Debug("Queued investigation request",
			zap.String("id", req.ID),
			zap.String("address", req.Address))
	default:
		n.logger.Warn("Request channel full, dropping request",
			zap.String("address", req.Address))
		if msg.Reply != "" {
			msg.Respond([]byte(`{"error":"engine overloaded"}`))
		}
	}
}

// Disconnect unsubscribes and closes the connection
func (n *NATSConsumer) Disconnect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.isRunning {
		return nil
	}
	n.isRunning = false

	if n.sub != nil {
		n.sub.Unsubscribe()
		n.sub = nil
	}
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	close(n.reqChan)
	n.logger.Info("Disconnected from NATS")
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSConsumer) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}

// GetRequestChannel returns the request channel
func (n *NATSConsumer) GetRequestChannel() <-chan *entity.InvestigationRequest {
	return n.reqChan
}
