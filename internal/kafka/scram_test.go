package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

// exchange runs a full handshake between client and an in-process server
// holding credentials for "alice".
func exchange(t *testing.T, hash scram.HashGeneratorFcn, client sarama.SCRAMClient, password string) error {
	t.Helper()

	stored, err := hash.NewClient("alice", "secret", "")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	creds := stored.GetStoredCredentials(scram.KeyFactors{Salt: "pepper", Iters: 4096})
	server, err := hash.NewServer(func(string) (scram.StoredCredentials, error) {
		return creds, nil
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	serverConv := server.NewConversation()

	if err := client.Begin("alice", password, ""); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	challenge := ""
	for !client.Done() {
		response, err := client.Step(challenge)
		if err != nil {
			return err
		}
		if client.Done() {
			break
		}
		if challenge, err = serverConv.Step(response); err != nil {
			return err
		}
	}
	return nil
}

func TestConfigureSCRAM(t *testing.T) {
	tests := []struct {
		mechanism string
		want      sarama.SASLMechanism
		hash      scram.HashGeneratorFcn
	}{
		{"SCRAM-SHA-256", sarama.SASLTypeSCRAMSHA256, scram.SHA256},
		{"SCRAM-SHA-512", sarama.SASLTypeSCRAMSHA512, scram.SHA512},
	}

	for _, tt := range tests {
		t.Run(tt.mechanism, func(t *testing.T) {
			cfg := sarama.NewConfig()
			if !configureSCRAM(cfg, tt.mechanism) {
				t.Fatal("configureSCRAM() = false")
			}
			if cfg.Net.SASL.Mechanism != tt.want {
				t.Errorf("mechanism = %s, want %s", cfg.Net.SASL.Mechanism, tt.want)
			}

			client := cfg.Net.SASL.SCRAMClientGeneratorFunc()
			if err := exchange(t, tt.hash, client, "secret"); err != nil {
				t.Fatalf("exchange error = %v", err)
			}
			if !client.Done() {
				t.Error("conversation not done")
			}

			if cfg.Net.SASL.SCRAMClientGeneratorFunc() == client {
				t.Error("generator reused a client")
			}
		})
	}
}

func TestConfigureSCRAM_NotSCRAM(t *testing.T) {
	for _, mechanism := range []string{"PLAIN", "AWS_MSK_IAM", "scram-sha-256", ""} {
		cfg := sarama.NewConfig()
		if configureSCRAM(cfg, mechanism) {
			t.Errorf("configureSCRAM(%q) = true", mechanism)
		}
		if cfg.Net.SASL.SCRAMClientGeneratorFunc != nil {
			t.Errorf("configureSCRAM(%q) set a generator", mechanism)
		}
	}
}

func TestSCRAMClient_WrongPassword(t *testing.T) {
	client := &scramClient{hash: scram.SHA256}
	if err := exchange(t, scram.SHA256, client, "guess"); err == nil {
		t.Fatal("exchange succeeded with a wrong password")
	}
}

func TestSCRAMClient_StepBeforeBegin(t *testing.T) {
	client := &scramClient{hash: scram.SHA512}
	if client.Done() {
		t.Error("Done() = true before Begin")
	}
	if _, err := client.Step(""); err == nil {
		t.Error("Step() before Begin returned nil error")
	}
}
