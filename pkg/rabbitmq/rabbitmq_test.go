package rabbitmq

import (
	"errors"
	"testing"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of Channel
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable, autoDelete, internal, noWait).Error(0)
}

func (m *MockChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	a := m.Called(name, durable, autoDelete, exclusive, noWait)
	return a.Get(0).(amqp.Queue), a.Error(1)
}

func (m *MockChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	return m.Called(name, key, exchange, noWait).Error(0)
}

func (m *MockChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	a := m.Called(queue, consumer, autoAck, exclusive, noLocal, noWait)
	return a.Get(0).(<-chan amqp.Delivery), a.Error(1)
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

// acks records how deliveries were settled.
type acks struct {
	acked  []uint64
	nacked []uint64
}

func (a *acks) Ack(tag uint64, multiple bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *acks) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	return nil
}

func (a *acks) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestClient(t *testing.T) (*Client, *MockChannel) {
	t.Helper()
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", CatalogExchange, "topic", true, false, false, false).Return(nil).Once()
	c, err := NewClientWithChannel(ch)
	require.NoError(t, err)
	return c, ch
}

func TestNewClientWithChannel_ClosesOnDeclareFailure(t *testing.T) {
	ch := new(MockChannel)
	ch.On("ExchangeDeclare", CatalogExchange, "topic", true, false, false, false).Return(errors.New("access refused")).Once()
	ch.On("Close").Return(nil).Once()

	_, err := NewClientWithChannel(ch)
	assert.ErrorContains(t, err, "access refused")
	ch.AssertExpectations(t)
}

func TestConsumeCatalogEvents_UsesPrivateQueue(t *testing.T) {
	c, ch := newTestClient(t)
	deliveries := make(chan amqp.Delivery)
	var msgs <-chan amqp.Delivery = deliveries

	// Broker-named, non-durable, auto-deleted and exclusive.
	ch.On("QueueDeclare", "", false, true, true, false).Return(amqp.Queue{Name: "amq.gen-1"}, nil).Once()
	ch.On("QueueBind", "amq.gen-1", ProductBinding, CatalogExchange, false).Return(nil).Once()
	ch.On("Consume", "amq.gen-1", "", false, true, false, false).Return(msgs, nil).Once()

	acker := &acks{}
	var handled []string
	done, err := c.ConsumeCatalogEvents(func(msg amqp.Delivery) error {
		handled = append(handled, string(msg.Body))
		if string(msg.Body) == "bad" {
			return errors.New("invalid event")
		}
		return nil
	})
	require.NoError(t, err)

	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte("good")}
	deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("bad")}
	close(deliveries)
	<-done

	assert.Equal(t, []string{"good", "bad"}, handled)
	assert.Equal(t, []uint64{1}, acker.acked)
	assert.Equal(t, []uint64{2}, acker.nacked)
	ch.AssertExpectations(t)
}

func TestConsumeCatalogEvents_BindFailure(t *testing.T) {
	c, ch := newTestClient(t)
	ch.On("QueueDeclare", "", false, true, true, false).Return(amqp.Queue{Name: "amq.gen-2"}, nil).Once()
	ch.On("QueueBind", "amq.gen-2", ProductBinding, CatalogExchange, false).Return(errors.New("no exchange")).Once()

	_, err := c.ConsumeCatalogEvents(func(amqp.Delivery) error { return nil })
	assert.ErrorContains(t, err, "failed to bind")
	ch.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_SendsPersistentJSON(t *testing.T) {
	c, ch := newTestClient(t)
	ch.On("Publish", CatalogExchange, "product.created", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		return p.ContentType == "application/json" && p.DeliveryMode == amqp.Persistent && string(p.Body) == `{"id":"p1"}`
	})).Return(nil).Once()

	require.NoError(t, c.Publish(CatalogExchange, "product.created", []byte(`{"id":"p1"}`)))
	ch.AssertExpectations(t)
}
