package teams

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wedosoft/teams-helpdesk-bridge/internal/domain/errors"
)

const (
	openIDMetadataURL = "https://login.botframework.com/v1/.well-known/openidconfiguration"

	botFrameworkIssuer = "https://api.botframework.com"

	// jwksRefreshInterval controls how often signing keys are refetched.
	jwksRefreshInterval = 24 * time.Hour
)

// ActivityValidator verifies the Authorization header on inbound Bot
// Framework activities. With no app ID configured (local development,
// emulator) validation is skipped entirely.
type ActivityValidator struct {
	appID      string
	httpClient *http.Client

	keysMu      sync.Mutex
	keys        map[string]*rsa.PublicKey
	keysFetched time.Time
	now         func() time.Time
}

// NewActivityValidator creates a validator for the given bot app ID.
func NewActivityValidator(appID string) *ActivityValidator {
	return &ActivityValidator{
		appID:      appID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		keys:       make(map[string]*rsa.PublicKey),
		now:        time.Now,
	}
}

// Validate checks the bearer token issued by the Bot Framework channel
// service. Returns nil when no app ID is configured.
func (v *ActivityValidator) Validate(ctx context.Context, authHeader string) error {
	if v.appID == "" {
		return nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return errors.NewUnauthorizedError("missing bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		kid, _ := token.Header["kid"].(string)
		return v.signingKey(ctx, kid)
	},
		jwt.WithIssuer(botFrameworkIssuer),
		jwt.WithAudience(v.appID),
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
	)
	if err != nil || !token.Valid {
		return errors.NewUnauthorizedError("invalid activity token")
	}
	return nil
}

func (v *ActivityValidator) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.keysMu.Lock()
	defer v.keysMu.Unlock()

	if key, ok := v.keys[kid]; ok && v.now().Sub(v.keysFetched) < jwksRefreshInterval {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}
	key, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key: %s", kid)
	}
	return key, nil
}

// refreshKeys walks OpenID metadata to the JWKS document and rebuilds the
// kid → key map. Caller holds keysMu.
func (v *ActivityValidator) refreshKeys(ctx context.Context) error {
	var metadata struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := v.fetchJSON(ctx, openIDMetadataURL, &metadata); err != nil {
		return fmt.Errorf("failed to fetch openid metadata: %w", err)
	}

	var jwks struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := v.fetchJSON(ctx, metadata.JWKSURI, &jwks); err != nil {
		return fmt.Errorf("failed to fetch jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, k := range jwks.Keys {
		if k.Kty != "RSA" {
			continue
		}
		key, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}
	if len(keys) == 0 {
		return fmt.Errorf("jwks contained no usable RSA keys")
	}

	v.keys = keys
	v.keysFetched = v.now()
	return nil
}

func (v *ActivityValidator) fetchJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d from %s", resp.StatusCode, endpoint)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}

	exponent := 0
	for _, b := range eBytes {
		exponent = exponent<<8 | int(b)
	}
	if exponent == 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: exponent,
	}, nil
}
