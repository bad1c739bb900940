package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/registrar/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/rs/zerolog/log"
)

// Notification kinds published to the service bus
const (
	NotificationDecision = "registration.decision"
	NotificationRefund   = "payment.refund"
)

// Notification is the message body published when a registration is decided
// or a payment is refunded. The worker consumes these to notify registrants.
type Notification struct {
	Type           string    `json:"type"`
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	EventTitle     string    `json:"event_title"`
	UserID         string    `json:"user_id"`
	Status         string    `json:"status"`
	Message        string    `json:"message,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// ServiceBusClient is an interface for Azure Service Bus send operations
type ServiceBusClient interface {
	SendMessage(ctx context.Context, body interface{}) error
	Close() error
}

// serviceBusClient implements the ServiceBusClient interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	queueName  string
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus client
func NewServiceBusClient(cfg config.AzureConfig, clientType string) (ServiceBusClient, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	// Create the Service Bus client
	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	// Create a sender for the queue
	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		queueName:  cfg.QueueName,
		clientType: clientType,
	}, nil
}

// SendMessage sends a message to the Service Bus queue
func (s *serviceBusClient) SendMessage(ctx context.Context, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message body: %w", err)
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": s.clientType,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// MessageHandler processes one received service bus message
type MessageHandler func(ctx context.Context, message *azservicebus.ReceivedMessage) error

// Processor receives messages from the notification queue and dispatches
// them to a handler, completing or abandoning each message by outcome.
type Processor struct {
	client    *azservicebus.Client
	queueName string
}

// NewProcessor creates a new queue processor
func NewProcessor(cfg config.AzureConfig) (*Processor, error) {
	if cfg.QueueConnStr == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	return &Processor{
		client:    client,
		queueName: cfg.QueueName,
	}, nil
}

// ProcessMessages receives and handles messages until the context is done
func (p *Processor) ProcessMessages(ctx context.Context, handler MessageHandler) error {
	receiver, err := p.client.NewReceiverForQueue(
		p.queueName,
		&azservicebus.ReceiverOptions{
			ReceiveMode: azservicebus.ReceiveModePeekLock,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create receiver for queue %s: %w", p.queueName, err)
	}
	defer receiver.Close(context.Background())

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		messages, err := receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to receive messages: %w", err)
		}

		for _, message := range messages {
			if err := handler(ctx, message); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to handle message")
				if abandonErr := receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
					log.Error().Err(abandonErr).Msg("Failed to abandon message")
				}
				continue
			}

			if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
				log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
			}
		}
	}
}

// Close closes the processor's client
func (p *Processor) Close() error {
	if p.client != nil {
		return p.client.Close(context.Background())
	}
	return nil
}
