package syncpay

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/magnani/vip-club/backend/internal/config"
)

// authenticate troca client_id/client_secret por um access token.
// O token vale apenas para a cobrança em curso e não é guardado.
func (c *Client) authenticate(ctx context.Context, creds config.Credentials) (string, error) {
	body, err := json.Marshal(AuthRequest{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("erro ao serializar credenciais: %w", err)
	}

	status, respBody, err := c.post(ctx, authPath, "", body)
	if err != nil {
		return "", networkError("autenticação", err)
	}

	if status < 200 || status >= 300 {
		c.logger.Error("falha na autenticação SyncPayments",
			zap.Int("status", status),
			zap.String("body", string(respBody)),
		)
		return "", &AuthError{Status: status, Body: string(respBody)}
	}

	var tokenResp AuthResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		c.logger.Error("resposta de autenticação ilegível", zap.String("body", string(respBody)), zap.Error(err))
		return "", &AuthError{Status: status, Body: string(respBody), Err: fmt.Errorf("erro ao decodificar token: %w", err)}
	}
	if tokenResp.AccessToken == "" {
		c.logger.Error("autenticação sem access_token", zap.String("body", string(respBody)))
		return "", &AuthError{Status: status, Body: string(respBody), Err: ErrMissingToken}
	}

	return tokenResp.AccessToken, nil
}
