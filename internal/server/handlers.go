package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/quiz"
	"github.com/abhisek/lyfeline/internal/rank"
	"github.com/abhisek/lyfeline/internal/shop"
	"github.com/abhisek/lyfeline/internal/store"
)

type generateQuizRequest struct {
	LessonTitle   string `json:"lessonTitle"`
	LessonContent string `json:"lessonContent"`
}

func (s *Server) generateQuiz(c *gin.Context) {
	var req generateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid request body")
		return
	}
	q, err := s.deps.Quiz.Generate(c.Request.Context(), quiz.Input{Title: req.LessonTitle, Content: req.LessonContent})
	if err != nil {
		s.respondError(c, err, "Failed to generate quiz")
		return
	}
	c.JSON(http.StatusOK, q)
}

func (s *Server) listLessons(c *gin.Context) {
	var list []lessons.Lesson
	if cat := c.Query("category"); cat != "" {
		list = s.deps.Catalog.ByCategory(lessons.Category(cat))
	} else {
		list = s.deps.Catalog.All()
	}
	out := make([]lessons.Lesson, len(list))
	for i, l := range list {
		out[i] = l.Summary()
	}
	c.JSON(http.StatusOK, gin.H{"lessons": out})
}

func (s *Server) getLesson(c *gin.Context) {
	l, ok := s.deps.Catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) lessonQuiz(c *gin.Context) {
	ctx := c.Request.Context()
	l, ok := s.deps.Catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lesson not found"})
		return
	}

	status, err := s.deps.Progress.Attempts(ctx, userID(c), l.ID)
	if err != nil {
		s.respondError(c, err, "Failed to load attempts")
		return
	}
	q, err := s.deps.Quiz.Generate(ctx, quiz.Input{Title: l.Title, Content: l.Content})
	if err != nil {
		s.respondError(c, err, "Failed to generate quiz")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"questions":         q.Questions,
		"attemptCount":      status.Count,
		"maxAttempts":       status.Max,
		"attemptsRemaining": status.Remaining,
	})
}

type completeRequest struct {
	SelectedAnswers []int `json:"selectedAnswers"`
	CorrectAnswers  []int `json:"correctAnswers"`
}

func (s *Server) completeLesson(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid request body")
		return
	}
	res, err := s.deps.Progress.CompleteQuiz(c.Request.Context(), userID(c), c.Param("id"), req.SelectedAnswers, req.CorrectAnswers)
	if err != nil {
		s.respondError(c, err, "Failed to save quiz results")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) purchase(c *gin.Context) {
	var req shop.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid request body")
		return
	}
	res, err := s.deps.Shop.Purchase(c.Request.Context(), userID(c), req)
	if err != nil {
		s.respondError(c, err, "Purchase failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) shopItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": shop.Items()})
}

func (s *Server) ranks(c *gin.Context) {
	if p := c.Query("points"); p != "" {
		points, err := strconv.Atoi(p)
		if err != nil {
			s.badRequest(c, "points must be an integer")
			return
		}
		info, err := rank.For(points)
		if err != nil {
			s.respondError(c, err, "Failed to compute rank")
			return
		}
		c.JSON(http.StatusOK, info)
		return
	}

	type tier struct {
		Rank       rank.Rank `json:"rank"`
		LowerBound int       `json:"lowerBound"`
		Icon       string    `json:"icon"`
	}
	var tiers []tier
	for _, r := range rank.AllRanks() {
		tiers = append(tiers, tier{Rank: r, LowerBound: r.LowerBound(), Icon: r.Icon()})
	}
	c.JSON(http.StatusOK, gin.H{"ranks": tiers})
}

func (s *Server) leaderboard(c *gin.Context) {
	if s.deps.Board == nil {
		c.JSON(http.StatusOK, gin.H{"entries": []any{}})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := s.deps.Board.Top(c.Request.Context(), limit)
	if err != nil {
		s.respondError(c, err, "Failed to load leaderboard")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type profileView struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Username         string    `json:"username"`
	DisplayName      string    `json:"displayName"`
	Bio              string    `json:"bio"`
	Avatar           string    `json:"avatar"`
	TotalPoints      int       `json:"totalPoints"`
	CurrentStreak    int       `json:"currentStreak"`
	LastActivityDate string    `json:"lastActivityDate,omitempty"`
	Rank             rank.Info `json:"rank"`
	LeaderboardRank  int       `json:"leaderboardRank,omitempty"`
}

func (s *Server) viewProfile(c *gin.Context, p *store.Profile) (*profileView, error) {
	info, err := rank.For(max(p.TotalPoints, 0))
	if err != nil {
		return nil, err
	}
	v := &profileView{
		ID:            p.ID,
		Email:         p.Email,
		Username:      p.Username,
		DisplayName:   p.DisplayName,
		Bio:           p.Bio,
		Avatar:        p.Avatar,
		TotalPoints:   p.TotalPoints,
		CurrentStreak: p.CurrentStreak,
		Rank:          info,
	}
	if p.LastActivityDate != nil {
		v.LastActivityDate = p.LastActivityDate.Format(time.DateOnly)
	}
	if s.deps.Board != nil {
		if pos, err := s.deps.Board.RankOf(c.Request.Context(), p.ID); err == nil {
			v.LeaderboardRank = pos
		} else {
			s.log.Warn("leaderboard rank lookup failed", "user_id", p.ID, "error", err)
		}
	}
	return v, nil
}

func (s *Server) me(c *gin.Context) {
	p, err := s.deps.Profiles.GetProfile(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err, "Failed to load profile")
		return
	}
	v, err := s.viewProfile(c, p)
	if err != nil {
		s.respondError(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, v)
}

type settingsRequest struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Avatar      *string `json:"avatar"`
}

const (
	maxDisplayName = 50
	maxBio         = 500
	maxAvatar      = 2048
)

func (r settingsRequest) toSettings() (store.ProfileSettings, error) {
	var set store.ProfileSettings
	if r.DisplayName != nil {
		name := strings.TrimSpace(*r.DisplayName)
		if name == "" || utf8.RuneCountInString(name) > maxDisplayName {
			return set, apperr.New(apperr.KindInvalidInput, "displayName must be 1 to %d characters", maxDisplayName)
		}
		set.DisplayName = &name
	}
	if r.Bio != nil {
		if utf8.RuneCountInString(*r.Bio) > maxBio {
			return set, apperr.New(apperr.KindInvalidInput, "bio must be at most %d characters", maxBio)
		}
		set.Bio = r.Bio
	}
	if r.Avatar != nil {
		if len(*r.Avatar) > maxAvatar {
			return set, apperr.New(apperr.KindInvalidInput, "avatar must be at most %d bytes", maxAvatar)
		}
		set.Avatar = r.Avatar
	}
	return set, nil
}

func (s *Server) updateMe(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, "Invalid request body")
		return
	}
	set, err := req.toSettings()
	if err != nil {
		s.respondError(c, err, "Failed to update profile")
		return
	}
	p, err := s.deps.Profiles.UpdateSettings(c.Request.Context(), userID(c), set)
	if err != nil {
		s.respondError(c, err, "Failed to update profile")
		return
	}
	v, err := s.viewProfile(c, p)
	if err != nil {
		s.respondError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) myProgress(c *gin.Context) {
	sum, err := s.deps.Progress.Summary(c.Request.Context(), userID(c))
	if err != nil {
		s.respondError(c, err, "Failed to load progress")
		return
	}
	c.JSON(http.StatusOK, sum)
}
