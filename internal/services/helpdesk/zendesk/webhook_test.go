package zendesk

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
}

func TestParse_AgentComment(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{
		"event": "comment_created",
		"ticket_id": 42,
		"comment_id": 1001,
		"actor_type": "agent",
		"actor_id": 55,
		"comment": "Thanks for reaching out."
	}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventMessage, event.Kind)
	assert.Equal(t, "42", event.ConversationID)
	require.NotNil(t, event.Message)
	assert.Equal(t, "1001", event.Message.ID)
	assert.Equal(t, "Thanks for reaching out.", event.Message.Text)
	assert.Equal(t, models.ActorAgent, event.Message.ActorKind)
	assert.Equal(t, "55", event.Message.ActorID)
}

func TestParse_ResolutionStatuses(t *testing.T) {
	for _, status := range []string{"solved", "Solved", "closed"} {
		t.Run(status, func(t *testing.T) {
			// Arrange
			verifier := newTestVerifier()
			raw := []byte(fmt.Sprintf(`{"ticket_id": 42, "status": %q}`, status))

			// Act
			event, err := verifier.Parse(raw)

			// Assert
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, models.EventResolution, event.Kind)
			assert.Equal(t, "42", event.ConversationID)
		})
	}
}

func TestParse_NestedTicketStatus(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket": {"id": 7, "status": "solved"}}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.EventResolution, event.Kind)
	assert.Equal(t, "7", event.ConversationID)
}

func TestParse_BodyFallback(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 42, "comment_id": 1, "body": "from body field"}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "from body field", event.Message.Text)
}

func TestParse_UserActorIgnored(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 42, "comment_id": 1, "actor_type": "user", "comment": "mine"}`)

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
	event, err := verifier.Parse([]byte(`{"event": "comment_created", "comment": "no ticket"}`))

	// Assert
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestParse_DuplicateCommentIgnored(t *testing.T) {
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"ticket_id": 42, "comment_id": 1001, "comment": "hi"}`)

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
	// Arrange
	verifier := newTestVerifier()
	raw := []byte(`{"event": "ticket_updated", "ticket_id": 42, "comment": "changed"}`)

	// Act
	event, err := verifier.Parse(raw)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, "42:ticket_updated", event.Message.ID)
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
