package http

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"cerebrocare/ml"
	"cerebrocare/patient"
)

// Page 页面标识
type Page string

const (
	PageHome            Page = "home"
	PagePrediction      Page = "prediction"
	PagePersonalization Page = "personalization"
)

// AppState 单个浏览器会话的界面状态
type AppState struct {
	Page          Page
	Theme         string
	HasPrediction bool
	Last          *ml.PredictionResult
	LastInput     *patient.Attributes
	UpdatedAt     time.Time
}

// SessionStore 有界的会话缓存，最久未使用的会话先被淘汰。
// 读改写通过 Update 串行化，同一会话的并发请求不会互相覆盖
type SessionStore struct {
	mu           sync.Mutex
	cache        *lru.Cache[string, AppState]
	cookieName   string
	defaultTheme string
}

// NewSessionStore 创建会话存储
func NewSessionStore(capacity int, cookieName, defaultTheme string) (*SessionStore, error) {
	cache, err := lru.New[string, AppState](capacity)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}
	if cookieName == "" {
		cookieName = "cerebrocare_session"
	}
	return &SessionStore{
		cache:        cache,
		cookieName:   cookieName,
		defaultTheme: defaultTheme,
	}, nil
}

// Load 返回请求所属会话；没有则新建并下发cookie
func (s *SessionStore) Load(w http.ResponseWriter, r *http.Request) (string, AppState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cookie, err := r.Cookie(s.cookieName); err == nil {
		if state, ok := s.cache.Get(cookie.Value); ok {
			return cookie.Value, state
		}
	}

	id := uuid.NewString()
	state := s.newState()
	s.cache.Add(id, state)
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, state
}

// Update 在锁内对最新的会话状态应用 fn 并写回
func (s *SessionStore) Update(id string, fn func(state *AppState)) AppState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.cache.Peek(id)
	if !ok {
		state = s.newState()
	}
	fn(&state)
	state.UpdatedAt = time.Now()
	s.cache.Add(id, state)
	return state
}

// Save 整体写回会话状态
func (s *SessionStore) Save(id string, state AppState) {
	s.Update(id, func(current *AppState) { *current = state })
}

func (s *SessionStore) newState() AppState {
	return AppState{Page: PageHome, Theme: s.defaultTheme, UpdatedAt: time.Now()}
}

// Len 当前会话数
func (s *SessionStore) Len() int {
	return s.cache.Len()
}
