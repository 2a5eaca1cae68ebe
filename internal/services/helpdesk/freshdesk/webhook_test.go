package freshdesk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/models"
	"github.com/wedosoft/teams-helpdesk-bridge/internal/services/helpdesk"
)

func newTestVerifier() *WebhookVerifier {
	return NewWebhookVerifier(helpdesk.NewDeduper(0, 0))
}

func TestVerifySignature_AlwaysPasses(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()

	// Act / Assert
	assert.NoError(t, verifier.VerifySignature([]byte("anything"), ""))
	assert.NoError(t, verifier.VerifySignature(nil, "bogus"))
}

func TestParse_AgentReply(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{
		"event": "note_created",
		"ticket_id": 123,
		"note_id": 456,
		"actor_type": "agent",
		"actor_id": 7,
		"body_text": "We are looking into it."
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventMessage, event.Kind)
	assert.Equal(t, "123", event.ConversationID)
	require.NotNil(t, event.Message)
	assert.Equal(t, "456", event.Message.ID)
	assert.Equal(t, "We are looking into it.", event.Message.Text)
	assert.Equal(t, models.ActorAgent, event.Message.ActorKind)
	assert.Equal(t, "7", event.Message.ActorID)
}

func TestParse_NestedTicketShape(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{
		"event": "reply",
		"ticket": {"id": 99, "status": 2},
		"note": {"id": 11, "body_text": "nested body"}
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventMessage, event.Kind)
	assert.Equal(t, "99", event.ConversationID)
	assert.Equal(t, "11", event.Message.ID)
	assert.Equal(t, "nested body", event.Message.Text)
}

func TestParse_ResolutionByStatusString(t *testing.T) {
	for _, status := range []string{"resolved", "Resolved", "closed", "CLOSED"} {
		t.Run(status, func(t *testing.T) {
			// Arrange
			verifier := newTestVerifier()
			raw := []byte(fmt.Sprintf(`{"ticket_id": 123, "status": %q}`, status))

			// Act
			event, err := verifier.Parse(raw)

			// Assert
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.EventResolution, event.Kind)
			assert.Equal(t, "123", event.ConversationID)
		})
	}
}

func TestParse_ResolutionByNumericStatus(t *testing.T) {
	for _, status := range []int{4, 5} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			// Arrange
			verifier := newTestVerifier()
			raw := []byte(fmt.Sprintf(`{"ticket_id": 123, "status": %d}`, status))

			// Act
			event, err := verifier.Parse(raw)

			// Assert
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.EventResolution, event.Kind)
		})
	}
}

func TestParse_OpenStatusIsMessage(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 123, "status": 2, "body_text": "still open"}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventMessage, event.Kind)
}

func TestParse_UserActorIgnored(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 123, "note_id": 1, "actor_type": "user", "body_text": "my own message"}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_MissingTicketIDIgnored(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()

	// Act
	event, err := verifier.Parse([]byte(`{"event": "reply", "body_text": "no ticket"}`))

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_DuplicateNoteIgnored(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 123, "note_id": 456, "actor_type": "agent", "body_text": "hi"}`)

	// Act
	first, err := verifier.Parse(raw)
	require.NoError(t, err)
	second, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, first)
	assert.Nil(t, second)
}

func TestParse_SyntheticMessageIDFromEvent(t *testing.T) {
	// Arrange: no note or message id, so the id is derived from the event
	verifier := newTestVerifier()
	raw := []byte(`{"event": "ticket_updated", "ticket_id": 123, "body_text": "changed"}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "123:ticket_updated", event.Message.ID)
}

func TestParse_MalformedJSON(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()

	// Act
	event, err := verifier.Parse([]byte("not json"))

	// Assert
	assert.Error(t, err)
	assert.Nil(t, event)
}
