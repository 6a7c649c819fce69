package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notifyng/dispatch/internal/models"
)

func TestRender(t *testing.T) {
	c := NewTemplateClient("", time.Second)

	tests := []struct {
		name     string
		template string
		payload  map[string]interface{}
		want     string
	}{
		{
			"simple substitution",
			"Hello {{name}}!",
			map[string]interface{}{"name": "Ada"},
			"Hello Ada!",
		},
		{
			"multiple placeholders",
			"{{greeting}}, {{name}}",
			map[string]interface{}{"greeting": "Hi", "name": "Ada"},
			"Hi, Ada",
		},
		{
			"whitespace inside braces",
			"Hello {{ name }}!",
			map[string]interface{}{"name": "Ada"},
			"Hello Ada!",
		},
		{
			"unresolved placeholder stays literal",
			"Hello {{name}}, order {{orderId}}",
			map[string]interface{}{"name": "Ada"},
			"Hello Ada, order {{orderId}}",
		},
		{
			"non-string value stringified",
			"Total: {{amount}}",
			map[string]interface{}{"amount": 42},
			"Total: 42",
		},
		{
			"no placeholders",
			"static text",
			map[string]interface{}{"name": "Ada"},
			"static text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Render(tt.template, tt.payload))
		})
	}
}

func TestTemplateClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/templates/order_created", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"channels": {
				"email": {"subject": "Order placed", "body": "Thanks {{name}}"},
				"in_app": {"body": "Order placed, {{name}}"}
			}
		}`))
	}))
	defer srv.Close()

	c := NewTemplateClient(srv.URL, time.Second)
	set, err := c.Get(context.Background(), "order_created")
	require.NoError(t, err)

	tpl, ok := set.ForChannel(models.ChannelEmail)
	require.True(t, ok)
	assert.Equal(t, "Order placed", tpl.Subject)
	assert.Equal(t, "Thanks {{name}}", tpl.Body)
}

func TestTemplateClientGetNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewTemplateClient(srv.URL, time.Second)
	_, err := c.Get(context.Background(), "missing_event")
	require.Error(t, err)
}
