package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
)

func TestMailgunNotifier_SendsToTenant(t *testing.T) {
	// Arrange
	var mu sync.Mutex
	var to, subject string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		to = r.FormValue("to")
		subject = r.FormValue("subject")
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"<20261015.1@mg.gigbook.test>","message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	n := NewMailgunNotifier(MailgunConfig{APIKey: "key-test", Domain: "mg.gigbook.test", APIBase: srv.URL})
	client := "Jane Doe"

	// Act
	err := n.NotifyReview(context.Background(),
		&models.Tenant{Name: "Jazz Duo", Email: "band@example.com"},
		&models.ReviewMessage{PublicID: "abc", Subject: "Gig?", Reason: "no date", ClientName: &client},
	)

	// Assert
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "band@example.com", to)
	assert.Equal(t, "Needs review: Gig?", subject)
}

func TestMailgunNotifier_SkipsTenantWithoutEmail(t *testing.T) {
	n := NewMailgunNotifier(MailgunConfig{APIKey: "key-test", Domain: "mg.gigbook.test", APIBase: "http://127.0.0.1:1"})

	err := n.NotifyReview(context.Background(), &models.Tenant{Name: "Jazz Duo"}, &models.ReviewMessage{})

	assert.NoError(t, err)
}

func TestReviewBody(t *testing.T) {
	client := "Jane Doe"
	body := reviewBody(&models.Tenant{Name: "Jazz Duo"}, &models.ReviewMessage{
		Sender: "jane@example.com", ClientName: &client, Reason: "no date", PublicID: "abc",
	})

	assert.Contains(t, body, "Hi Jazz Duo")
	assert.Contains(t, body, "Client: Jane Doe")
	assert.Contains(t, body, "Reason: no date")
	assert.Contains(t, body, "Reference: abc")
}
