package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimitMessage é exibida ao comprador quando o limite é atingido
const RateLimitMessage = "Muitas tentativas. Aguarde um momento e tente novamente."

// Decision é o resultado de uma verificação de limite
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter decide se a chave ainda pode fazer requisições
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RateLimitOption configura o middleware de rate limit
type RateLimitOption func(*rateLimitOptions)

type rateLimitOptions struct {
	bucket  string
	proxies *ProxyResolver
}

// WithBucket agrupa rotas diferentes sob o mesmo contador
func WithBucket(name string) RateLimitOption {
	return func(o *rateLimitOptions) { o.bucket = name }
}

// WithProxies usa os headers de encaminhamento vindos dos proxies confiáveis
func WithProxies(p *ProxyResolver) RateLimitOption {
	return func(o *rateLimitOptions) { o.proxies = p }
}

// RateLimit aplica o limiter por IP do cliente e bucket.
// Falhas do limiter liberam a requisição.
func RateLimit(limiter Limiter, logger *zap.Logger, opts ...RateLimitOption) func(http.Handler) http.Handler {
	o := rateLimitOptions{bucket: "default"}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := o.bucket + ":" + o.proxies.ClientIP(r)
			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Error("erro ao verificar rate limit", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

			if !d.Allowed {
				logger.Warn("rate limit excedido", zap.String("key", key))

				retryAfter := int64(time.Until(d.ResetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success":   false,
					"error":     RateLimitMessage,
					"errorKind": "rate_limited",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP retorna o IP da conexão, ignorando headers de encaminhamento
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ProxyResolver lê o IP real do cliente dos headers de encaminhamento,
// mas só quando a conexão vem de um proxy confiável
type ProxyResolver struct {
	trusted []*net.IPNet
}

// NewProxyResolver aceita IPs ou CIDRs ("10.0.0.0/8", "127.0.0.1")
func NewProxyResolver(entries []string) (*ProxyResolver, error) {
	p := &ProxyResolver{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.Contains(e, "/") {
			ip := net.ParseIP(e)
			if ip == nil {
				return nil, fmt.Errorf("proxy confiável inválido: %q", e)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			p.trusted = append(p.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("proxy confiável inválido: %q: %w", e, err)
		}
		p.trusted = append(p.trusted, n)
	}
	return p, nil
}

// ClientIP retorna o IP do cliente. Sem proxies confiáveis (ou p nil)
// equivale ao ClientIP do pacote. O X-Forwarded-For é lido da direita
// para a esquerda e o primeiro salto não confiável é o cliente.
func (p *ProxyResolver) ClientIP(r *http.Request) string {
	remote := ClientIP(r)
	if !p.isTrusted(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if net.ParseIP(hop) == nil {
				return remote
			}
			if !p.isTrusted(hop) {
				return hop
			}
		}
	}

	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return remote
}

func (p *ProxyResolver) isTrusted(addr string) bool {
	if p == nil {
		return false
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range p.trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// ==================== Memória ====================

// MemoryLimiter é uma janela deslizante por chave, local ao processo
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewMemoryLimiter cria um limiter de limit requisições por window
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

// Allow implementa Limiter
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := m.now()
	cutoff := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	hits := m.hits[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	d := Decision{Limit: m.limit, ResetAt: now.Add(m.window)}
	if len(kept) > 0 {
		d.ResetAt = kept[0].Add(m.window)
	}

	if len(kept) >= m.limit {
		m.hits[key] = kept
		return d, nil
	}

	kept = append(kept, now)
	m.hits[key] = kept
	d.Allowed = true
	d.Remaining = m.limit - len(kept)
	return d, nil
}

// Cleanup remove chaves sem acessos na janela atual
func (m *MemoryLimiter) Cleanup() {
	cutoff := m.now().Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, hits := range m.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(m.hits, key)
		}
	}
}

// ==================== Redis ====================

// fixedWindowScript incrementa o contador da janela e define a expiração no
// primeiro acesso, de forma atômica
var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter é uma janela fixa compartilhada entre réplicas
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter conecta ao Redis e valida a conexão
func NewRedisLimiter(redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("URL do Redis inválida para rate limit: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("erro ao conectar ao Redis para rate limit: %w", err)
	}

	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "rate_limit:"}, nil
}

// Allow implementa Limiter
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	windowStart := now.Truncate(l.window)
	resetAt := windowStart.Add(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, key, windowStart.Unix())

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		return Decision{}, fmt.Errorf("erro no script de rate limit: %w", err)
	}

	d := Decision{Limit: l.limit, ResetAt: resetAt}
	if int(count) > l.limit {
		return d, nil
	}
	d.Allowed = true
	d.Remaining = l.limit - int(count)
	return d, nil
}

// Close fecha a conexão Redis
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = (*RedisLimiter)(nil)
)
