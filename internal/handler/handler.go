package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/5HA5HWAT/Att-Tracker/internal/auth"
	"github.com/5HA5HWAT/Att-Tracker/internal/metrics"
	"github.com/5HA5HWAT/Att-Tracker/internal/predict"
	"github.com/5HA5HWAT/Att-Tracker/internal/tracker"
	"github.com/5HA5HWAT/Att-Tracker/internal/user"
)

// Handler carries the services behind the REST surface.
type Handler struct {
	users     *user.Service
	tracker   *tracker.Service
	predictor *predict.Client
	jwtSecret string
	jwtIssuer string
}

// New creates a handler. predictor may be nil when the prediction proxy is
// not wanted (the route still responds via the local fallback).
func New(users *user.Service, trk *tracker.Service, predictor *predict.Client, jwtSecret, jwtIssuer string) *Handler {
	return &Handler{
		users:     users,
		tracker:   trk,
		predictor: predictor,
		jwtSecret: jwtSecret,
		jwtIssuer: jwtIssuer,
	}
}

// Register mounts all user-facing routes.
func (h *Handler) Register(r *gin.Engine) {
	grp := r.Group("/api/v1/user")
	grp.POST("/signup", h.Signup)
	grp.POST("/signin", h.Signin)

	authed := grp.Group("", auth.RequireUser(h.jwtSecret, h.jwtIssuer))
	authed.GET("/subjects", h.ListSubjects)
	authed.POST("/subjects", h.CreateSubject)
	authed.DELETE("/subjects/:id", h.DeleteSubject)
	authed.POST("/subjects/:id/attendance", h.RecordAttendance)
	authed.GET("/schedule", h.GetSchedule)
	authed.POST("/schedule", h.SaveSchedule)
	authed.GET("/dashboard", h.Dashboard)
	authed.POST("/predict", h.Predict)
}

// ---------- Auth ----------

type signupRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account. Accepts both fullName and username for the
// display name; clients in the wild send either.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := req.FullName
	if name == "" {
		name = req.Username
	}

	details := gin.H{}
	if name == "" {
		details["fullName"] = "Full name is required"
	}
	if req.Email == "" {
		details["email"] = "Email is required"
	}
	if req.Password == "" {
		details["password"] = "Password is required"
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": details})
		return
	}

	err := h.users.Register(c.Request.Context(), name, req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
	case err != nil:
		h.internal(c, err, "Failed to create user")
	default:
		metrics.Signups.Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Signup Successful"})
	}
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin verifies credentials and returns a bearer token.
func (h *Handler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	details := gin.H{}
	if req.Email == "" {
		details["email"] = "Email is required"
	}
	if req.Password == "" {
		details["password"] = "Password is required"
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": details})
		return
	}

	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		metrics.Signins.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	case err != nil:
		metrics.Signins.WithLabelValues("error").Inc()
		h.internal(c, err, "Authentication failed")
		return
	}

	token, err := auth.Issue(u.ID, h.jwtIssuer, h.jwtSecret)
	if err != nil {
		metrics.Signins.WithLabelValues("error").Inc()
		h.internal(c, err, "Authentication failed")
		return
	}
	metrics.Signins.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"message":  "Signin successful",
		"token":    token,
		"username": u.Username,
	})
}

// ---------- Subjects ----------

// subjectView adds the derived attendance percentage to a subject.
type subjectView struct {
	tracker.Subject
	Percentage float64 `json:"percentage"`
}

func viewSubjects(subjects []tracker.Subject) []subjectView {
	out := make([]subjectView, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, subjectView{Subject: s, Percentage: s.Percentage()})
	}
	return out
}

// ListSubjects returns the caller's subjects.
func (h *Handler) ListSubjects(c *gin.Context) {
	subjects, err := h.tracker.Subjects(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.internal(c, err, "Failed to fetch subjects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"subjects": viewSubjects(subjects)})
}

type createSubjectRequest struct {
	Name string `json:"name"`
}

// CreateSubject creates a subject owned by the caller with zeroed counters.
func (h *Handler) CreateSubject(c *gin.Context) {
	var req createSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	subj, err := h.tracker.CreateSubject(c.Request.Context(), auth.UserID(c), req.Name)
	if err != nil {
		h.fail(c, err, "Failed to create subject")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Subject created successfully",
		"subject": subjectView{Subject: subj, Percentage: subj.Percentage()},
	})
}

// DeleteSubject removes an owned subject.
func (h *Handler) DeleteSubject(c *gin.Context) {
	err := h.tracker.DeleteSubject(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to delete subject")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subject deleted"})
}

type attendanceRequest struct {
	Present *bool `json:"present"`
}

// RecordAttendance bumps an owned subject's counters by one class.
func (h *Handler) RecordAttendance(c *gin.Context) {
	var req attendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Present == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": gin.H{"present": "present is required"}})
		return
	}
	subj, err := h.tracker.RecordAttendance(c.Request.Context(), auth.UserID(c), c.Param("id"), *req.Present)
	if err != nil {
		h.fail(c, err, "Failed to record attendance")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Attendance recorded",
		"subject": subjectView{Subject: subj, Percentage: subj.Percentage()},
	})
}

// ---------- Schedule ----------

// GetSchedule returns the caller's schedule when one was saved.
func (h *Handler) GetSchedule(c *gin.Context) {
	sched, err := h.tracker.Schedule(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.internal(c, err, "Failed to fetch schedule")
		return
	}
	if sched == nil {
		c.JSON(http.StatusOK, gin.H{"hasSchedule": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasSchedule": true, "schedule": sched})
}

type saveScheduleRequest struct {
	Subjects []tracker.Entry `json:"subjects"`
}

// SaveSchedule creates or fully replaces the caller's weekly schedule.
func (h *Handler) SaveSchedule(c *gin.Context) {
	var req saveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Subjects == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": gin.H{"subjects": "subjects is required"}})
		return
	}
	sched, err := h.tracker.SaveSchedule(c.Request.Context(), auth.UserID(c), req.Subjects)
	if err != nil {
		h.fail(c, err, "Failed to update schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schedule updated successfully", "schedule": sched})
}

// ---------- Dashboard ----------

// Dashboard aggregates everything the landing view needs in one call.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	userID := auth.UserID(c)

	u, err := h.users.Get(ctx, userID)
	if err != nil {
		h.internal(c, err, "Failed to fetch dashboard data")
		return
	}
	subjects, err := h.tracker.Subjects(ctx, userID)
	if err != nil {
		h.internal(c, err, "Failed to fetch dashboard data")
		return
	}
	sched, err := h.tracker.Schedule(ctx, userID)
	if err != nil {
		h.internal(c, err, "Failed to fetch dashboard data")
		return
	}

	resp := gin.H{
		"user":        u,
		"subjects":    viewSubjects(subjects),
		"hasSchedule": sched != nil,
		"schedule":    nil,
	}
	if sched != nil {
		resp["schedule"] = sched
	}
	c.JSON(http.StatusOK, resp)
}

// ---------- Prediction ----------

type predictRequest struct {
	SubjectID string `json:"subjectId"`
	Date      string `json:"date"`
}

// Predict proxies the external prediction service for an owned subject,
// falling back to the weekday heuristic when the service is unreachable.
func (h *Handler) Predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	details := gin.H{}
	if req.SubjectID == "" {
		details["subjectId"] = "subjectId is required"
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		details["date"] = "date must be YYYY-MM-DD"
	}
	if len(details) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": details})
		return
	}

	ctx := c.Request.Context()
	userID := auth.UserID(c)
	subjects, err := h.tracker.Subjects(ctx, userID)
	if err != nil {
		h.internal(c, err, "Failed to fetch prediction")
		return
	}
	var name string
	for _, s := range subjects {
		if s.ID == req.SubjectID {
			name = s.Name
			break
		}
	}
	if name == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subject not found"})
		return
	}

	if h.predictor == nil {
		c.JSON(http.StatusOK, predict.Fallback(date))
		return
	}
	res := h.predictor.Predict(ctx, predict.Request{
		Subject: name,
		Date:    req.Date,
		UserID:  userID,
	})
	c.JSON(http.StatusOK, res)
}

// ---------- Error mapping ----------

// fail maps domain errors to the HTTP taxonomy; everything unexpected is an
// opaque 500 with the detail kept in the server log.
func (h *Handler) fail(c *gin.Context, err error, opaque string) {
	var verr *tracker.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, tracker.ErrNotFound), errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		h.internal(c, err, opaque)
	}
}

func (h *Handler) internal(c *gin.Context, err error, opaque string) {
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": opaque})
}
