package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

var _ sarama.SCRAMClient = (*scramClient)(nil)

type scramMechanism struct {
	name sarama.SASLMechanism
	hash scram.HashGeneratorFcn
}

var scramMechanisms = map[string]scramMechanism{
	"SCRAM-SHA-256": {name: sarama.SASLTypeSCRAMSHA256, hash: scram.SHA256},
	"SCRAM-SHA-512": {name: sarama.SASLTypeSCRAMSHA512, hash: scram.SHA512},
}

// scramClient runs one xdg-go/scram conversation for a sarama SASL handshake.
type scramClient struct {
	hash scram.HashGeneratorFcn
	conv *scram.ClientConversation
}

func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hash.NewClient(userName, password, authzID)
	if err != nil {
		return fmt.Errorf("scram client: %w", err)
	}
	c.conv = client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	if c.conv == nil {
		return "", fmt.Errorf("scram conversation not started")
	}
	return c.conv.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.conv != nil && c.conv.Done()
}

// configureSCRAM selects a SCRAM mechanism by its Kafka name. It reports
// false for anything that is not SCRAM.
func configureSCRAM(config *sarama.Config, mechanism string) bool {
	m, ok := scramMechanisms[mechanism]
	if !ok {
		return false
	}
	config.Net.SASL.Mechanism = m.name
	config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
		return &scramClient{hash: m.hash}
	}
	return true
}
