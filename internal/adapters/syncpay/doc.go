// Package syncpay implementa o adaptador para a API PIX da SyncPayments.
//
// Este pacote implementa:
//   - Troca de credenciais por token (sem cache: um token por cobrança)
//   - Criação de cobrança PIX imediata
//   - Tratamento de webhooks de confirmação
//
// # Autenticação
//
// A API usa client_id e client_secret enviados em JSON para
// /api/partner/v1/auth-token. As credenciais são lidas a cada cobrança
// através de um config.CredentialsFunc:
//
//	client, err := syncpay.NewClient(&cfg.SyncPay, config.EnvCredentials,
//	    syncpay.WithLogger(logger))
//
// Opcionalmente, um certificado .p12 habilita mTLS.
//
// # Criando uma cobrança
//
//	charge, err := client.CreateCharge(ctx, domain.PaymentRequest{
//	    Amount:           decimal.RequireFromString("29.90"),
//	    CustomerName:     "Maria Silva",
//	    CustomerEmail:    "maria@example.com",
//	    CustomerDocument: "123.456.789-09",
//	    CustomerPhone:    "(11) 98765-4321",
//	    IdempotencyKey:   sessionKey,
//	})
//
// charge.PaymentCode é o PIX copia e cola; charge.QRCodeDataURI() a imagem.
//
// # Novas tentativas
//
// Cada etapa é repetida até MaxRetries vezes em falha de transporte, 429 ou
// 5xx. A cobrança reenvia o mesmo corpo, com a mesma referência externa.
//
// # Tratamento de Webhooks
//
//	handler := syncpay.NewWebhookHandler(cfg.Webhook.Secret, logger)
//	handler.OnPaymentConfirmed = func(ctx context.Context, c syncpay.PaymentConfirmation) error {
//	    // Pagamento confirmado - liberar o link de entrega
//	    return nil
//	}
//	router.Handle("/api/webhooks/syncpay", handler)
//
// # Tratamento de Erros
//
// Todos os erros podem ser comparados com as categorias de domain:
//
//	errors.Is(err, domain.ErrNotConfigured)  // credenciais ausentes
//	errors.Is(err, domain.ErrAuthentication) // *AuthError
//	errors.Is(err, domain.ErrChargeCreation) // *ChargeError
//	errors.Is(err, domain.ErrNetwork)        // transporte ou timeout
//
// O corpo da resposta do provedor fica em AuthError.Body / ChargeError.Body
// apenas para log.
package syncpay
