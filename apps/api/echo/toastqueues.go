package echoapi

import (
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/learnova/learnova/core"
	"github.com/learnova/learnova/core/toast"
)

const (
	visitorCookieSuffix = "_visitor"
	contextToastKey     = "toastKey"

	queueIdleTTL    = 30 * time.Minute
	queueSweepEvery = time.Minute
)

var nowFunc = time.Now // mockable

// toastQueue is the toast store of a single browser session and its rendering subscriber.
// A nil *toastQueue reads as an empty queue.
type toastQueue struct {
	store    *toast.Store
	rendered *toastRenderer
	lastSeen time.Time // guarded by toastQueues.mu
}

func (tq *toastQueue) HTML() template.HTML {
	if tq == nil {
		return ""
	}
	return tq.rendered.HTML()
}

func (tq *toastQueue) Toasts() []toast.Toast {
	if tq == nil {
		return []toast.Toast{}
	}
	return tq.store.Toasts()
}

func (tq *toastQueue) Dismiss(id string) {
	if tq != nil {
		tq.store.Dismiss(id)
	}
}

// toastQueues holds one toast queue per session: signed-in users are keyed by
// their subject, anonymous visitors by a random cookie.
// Empty queues idle for longer than queueIdleTTL are dropped.
type toastQueues struct {
	conf     *core.Config
	tmpl     *renderer
	logger   core.Logger
	sessions sessionProvider

	mu        sync.Mutex
	queues    map[string]*toastQueue
	lastSweep time.Time
}

func newToastQueues(conf *core.Config, tmpl *renderer, logger core.Logger, sessions sessionProvider) *toastQueues {
	return &toastQueues{
		conf:     conf,
		tmpl:     tmpl,
		logger:   logger,
		sessions: sessions,
		queues:   make(map[string]*toastQueue),
	}
}

func userQueueKey(id string) string    { return "user:" + id }
func visitorQueueKey(id string) string { return "visitor:" + id }

func (q *toastQueues) visitorCookie() string {
	return q.conf.Session.CookieName + visitorCookieSuffix
}

// key identifies the queue of the request. It is empty for a visitor without cookie,
// unless create is set, in which case a visitor cookie is issued.
func (q *toastQueues) key(ctx echo.Context, create bool) string {
	if key, ok := ctx.Get(contextToastKey).(string); ok {
		return key
	}

	var key string
	if claims := q.sessions.claims(ctx); claims != nil && claims.Subject != "" {
		key = userQueueKey(claims.Subject)
	} else if cookie, err := ctx.Cookie(q.visitorCookie()); err == nil {
		if _, err = uuid.Parse(cookie.Value); err == nil {
			key = visitorQueueKey(cookie.Value)
		}
	}
	if key == "" && create {
		id := uuid.New().String()
		ctx.SetCookie(&http.Cookie{
			Name:     q.visitorCookie(),
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   !q.conf.Debug,
			SameSite: http.SameSiteLaxMode,
		})
		key = visitorQueueKey(id)
	}

	if key != "" {
		ctx.Set(contextToastKey, key)
	}
	return key
}

// forRequest returns the queue of the request's session. It returns nil when the
// session has no queue yet and create is false.
func (q *toastQueues) forRequest(ctx echo.Context, create bool) *toastQueue {
	key := q.key(ctx, create)
	if key == "" {
		return nil
	}
	return q.get(key, create)
}

// forUser returns the queue of a signed-in user, creating it if needed.
func (q *toastQueues) forUser(id string) *toastQueue {
	return q.get(userQueueKey(id), true)
}

func (q *toastQueues) get(key string, create bool) *toastQueue {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := nowFunc()
	q.sweep(now)

	tq, ok := q.queues[key]
	if !ok {
		if !create {
			return nil
		}
		store := toast.NewStore(q.conf.Toast.DismissDelay)
		tq = &toastQueue{store: store, rendered: newToastRenderer(store, q.tmpl, q.logger)}
		q.queues[key] = tq
	}
	tq.lastSeen = now
	return tq
}

// sweep expects q.mu to be held.
func (q *toastQueues) sweep(now time.Time) {
	if now.Sub(q.lastSweep) < queueSweepEvery {
		return
	}
	q.lastSweep = now
	for key, tq := range q.queues {
		if tq.store.Len() == 0 && now.Sub(tq.lastSeen) > queueIdleTTL {
			tq.rendered.Close()
			delete(q.queues, key)
		}
	}
}

func (q *toastQueues) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues)
}

func (q *toastQueues) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for key, tq := range q.queues {
		tq.rendered.Close()
		delete(q.queues, key)
	}
}
