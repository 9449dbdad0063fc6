package exporters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOTLPExporterRejectsUnknownProtocol(t *testing.T) {
	config := DefaultOTLPConfig()
	config.Protocol = "carrier-pigeon"

	_, err := NewOTLPExporter(context.Background(), config)
	assert.ErrorContains(t, err, "unsupported OTLP protocol")
}

func TestDefaultOTLPConfig(t *testing.T) {
	config := DefaultOTLPConfig()
	assert.Equal(t, "grpc", config.Protocol)
	assert.True(t, config.Insecure)
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		protocol  string
		expectErr bool
	}{
		{name: "grpc", protocol: "grpc"},
		{name: "default", protocol: ""},
		{name: "http", protocol: "http"},
		{name: "unknown", protocol: "udp", expectErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultOTLPConfig()
			config.Protocol = test.protocol
			config.Headers = map[string]string{"authorization": "token"}

			client, err := newClient(config)
			if test.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
