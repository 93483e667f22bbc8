package app

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSplitBrokers(t *testing.T) {
	assert.Nil(t, splitBrokers(""))
	assert.Nil(t, splitBrokers(" , ,"))
	assert.Equal(t, []string{"b1:9092", "b2:9092"}, splitBrokers(" b1:9092 ,, b2:9092 "))
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	producer, err := initKafkaProducer("  ", log.WithField("test", "kafka"))
	assert.NoError(t, err)
	assert.Nil(t, producer)
}

func TestInitKafkaProducer_UnreachableBrokers(t *testing.T) {
	// Порт без брокера: sarama не получит метаданные.
	producer, err := initKafkaProducer("127.0.0.1:1, 127.0.0.1:2", log.WithField("test", "kafka"))
	assert.Error(t, err)
	assert.Nil(t, producer)
}

func TestCloseKafka_NilProducer(_ *testing.T) {
	closeKafka(nil, log.WithField("test", "kafka"))
}
