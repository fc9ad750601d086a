package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"tokoadmin/internal/config"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		AppPort:        "127.0.0.1:0",
		CatalogTimeout: 5 * time.Second,
		StubDriver:     config.DriverSQLite,
		StubDSN:        fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
		StubSeed:       true,
		PriceCurrency:  "PHP",
	}
}

// startApp runs the console until the test ends.
func startApp(t *testing.T) (*App, *http.Client) {
	t.Helper()
	a, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-stopped)
		assert.NoError(t, a.Close())
	})

	httpClient := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return a, httpClient
}

func get(t *testing.T, c *http.Client, a *App, path string) (int, string) {
	t.Helper()
	resp, err := c.Get("http://" + a.Addr() + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, c *http.Client, a *App, path string, form url.Values) int {
	t.Helper()
	resp, err := c.PostForm("http://"+a.Addr()+path, form)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func settle(a *App) {
	a.Page().Wait()
	a.Store().Wait()
}

func TestApp_HealthCheck(t *testing.T) {
	a, c := startApp(t)

	status, body := get(t, c, a, "/health")
	require.Equal(t, http.StatusOK, status)

	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "embedded", health["catalog"])
	assert.Equal(t, "disabled", health["events"])
}

func TestApp_SeededCatalogIsListed(t *testing.T) {
	a, c := startApp(t)

	status, _ := get(t, c, a, "/")
	require.Equal(t, http.StatusOK, status)
	settle(a)

	status, body := get(t, c, a, "/")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "₱1,200.00")
	assert.Len(t, a.Page().Products(), 3)
}

func TestApp_AddProductThroughConsole(t *testing.T) {
	a, c := startApp(t)
	get(t, c, a, "/")
	settle(a)

	assert.Equal(t, http.StatusSeeOther, postForm(t, c, a, "/modals/add/open", nil))
	assert.Equal(t, http.StatusSeeOther, postForm(t, c, a, "/modals/add/submit", url.Values{
		"name": {"Cap"}, "description": {"Blue cap"}, "price": {"50"}, "stock": {"10"},
	}))
	settle(a)

	var names []string
	for _, p := range a.Page().Products() {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "Cap")

	_, body := get(t, c, a, "/")
	assert.Contains(t, body, "Product created successfully")
}

func TestApp_ToggleThroughConsole(t *testing.T) {
	a, c := startApp(t)
	get(t, c, a, "/")
	settle(a)

	products := a.Page().Products()
	require.NotEmpty(t, products)
	id := products[0].ID
	require.True(t, products[0].IsActive)

	postForm(t, c, a, "/products/"+id+"/toggle/open", nil)
	postForm(t, c, a, "/products/"+id+"/toggle/submit", nil)
	settle(a)

	for _, p := range a.Page().Products() {
		if p.ID == id {
			assert.False(t, p.IsActive)
		}
	}
}

func TestApp_CatalogEventRevalidates(t *testing.T) {
	a, c := startApp(t)
	get(t, c, a, "/")
	settle(a)
	before := a.Store().Read("/api/v1/product-list").UpdatedAt

	err := a.handleCatalogEvent(amqp.Delivery{Body: []byte(`{"operation":"updated","id":"p1"}`)})
	require.NoError(t, err)
	settle(a)
	assert.True(t, a.Store().Read("/api/v1/product-list").UpdatedAt.After(before))

	err = a.handleCatalogEvent(amqp.Delivery{Body: []byte(`not json`)})
	assert.ErrorContains(t, err, "invalid catalog event")
}

func TestApp_MemoryCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.StubDriver = config.DriverMemory
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- a.Run(ctx) }()

	a.Page().Revalidate()
	settle(a)
	assert.Len(t, a.Page().Products(), 3)

	cancel()
	assert.NoError(t, <-stopped)
}

// stubEvents stands in for the RabbitMQ client.
type stubEvents struct {
	consumeErr error
	done       chan struct{}
	closed     bool
}

func (s *stubEvents) Publish(exchange, routingKey string, body []byte) error { return nil }

func (s *stubEvents) ConsumeCatalogEvents(func(amqp.Delivery) error) (<-chan struct{}, error) {
	if s.consumeErr != nil {
		return nil, s.consumeErr
	}
	return s.done, nil
}

func (s *stubEvents) Close() error {
	s.closed = true
	return nil
}

func TestApp_RunFailsFastWhenConsumerCannotStart(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	events := &stubEvents{consumeErr: errors.New("channel closed")}
	a.mq = events

	stopped := make(chan error, 1)
	go func() { stopped <- a.Run(context.Background()) }()

	select {
	case err := <-stopped:
		assert.ErrorContains(t, err, "failed to start RabbitMQ consumer")
	case <-time.After(5 * time.Second):
		t.Fatal("Run kept going after the consumer failed to start")
	}
	require.NoError(t, a.Close())
	assert.True(t, events.closed)
}

func TestApp_KeepsServingAfterEventStreamCloses(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	events := &stubEvents{done: make(chan struct{})}
	a.mq = events
	close(events.done)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)
	go func() { stopped <- a.Run(ctx) }()
	defer a.Close()

	c := &http.Client{Timeout: 5 * time.Second}
	status, body := get(t, c, a, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"events":"connected"`)

	cancel()
	assert.NoError(t, <-stopped)
}

func TestNew_RejectsUnknownCurrency(t *testing.T) {
	cfg := testConfig(t)
	cfg.PriceCurrency = "NOPE"

	_, err := New(cfg)
	assert.Error(t, err)
}
