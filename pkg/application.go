package main

import (
	"context"
	"errors"
	"fmt"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/auth"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/client"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/msg"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/queue"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	qrSize = 256

	activatePath = "/admin/activate"
	overviewPath = "/admin/overview"
)

// Application translates HTTP requests into engine calls. It never
// holds queue state itself.
type Application struct {
	config      *config.Config
	env         *config.Env
	settings    *config.QueueSettings
	engine      *queue.Engine
	hub         *client.Hub
	adminTokens *auth.AdminTokens
	wsUpgrader  *websocket.Upgrader

	logger *zap.SugaredLogger
}

type errorResponse struct {
	Error string `json:"error"`

	// Where the caller should go next, e.g. the activation form.
	Next string `json:"next,omitempty"`
}

type homeResponse struct {
	Session   queue.Session `json:"session"`
	JoinURL   string        `json:"joinUrl"`
	JoinQRURL string        `json:"joinQrUrl"`
	StatusURL string        `json:"statusUrl"`
}

type joinResponse struct {
	Ticket               int    `json:"ticket"`
	Position             int    `json:"position"`
	EstimatedWaitMinutes int    `json:"estimatedWaitMinutes"`
	StatusURL            string `json:"statusUrl"`
	QRURL                string `json:"qrUrl"`
}

type statusResponse struct {
	*msg.StatusServerEvent
	BusinessName string `json:"businessName"`
}

type ticketStatusResponse struct {
	*msg.TicketServerEvent
	CurrentServing *int `json:"currentServing"`
}

type overviewResponse struct {
	Session            queue.Session          `json:"session"`
	Status             *msg.StatusServerEvent `json:"status"`
	Missing            []int                  `json:"missing"`
	Stats              queue.StatsSnapshot    `json:"stats"`
	PerCustomerMinutes int                    `json:"perCustomerMinutes"`
}

type ticketResponse struct {
	Ticket int `json:"ticket"`
}

type activateRequest struct {
	BusinessName string `json:"businessName" form:"business_name"`
	Operator     string `json:"operator" form:"created_by"`
}

type loginResponse struct {
	Next string `json:"next"`
}

type loginRequest struct {
	Password string `json:"password" form:"password"`
}

func ProvideApplication(
	config *config.Config,
	env *config.Env,
	settings *config.QueueSettings,
	engine *queue.Engine,
	hub *client.Hub,
	adminTokens *auth.AdminTokens,
	loggerFactory *infra.LoggerFactory,
) *Application {
	return &Application{
		config:      config,
		env:         env,
		settings:    settings,
		engine:      engine,
		hub:         hub,
		adminTokens: adminTokens,
		wsUpgrader:  &websocket.Upgrader{},
		logger:      loggerFactory.Create("Application").Sugar(),
	}
}

// Run starts the background workers and blocks until ctx is done or a
// worker fails.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.settings.Run(ctx) })
	g.Go(func() error { return a.hub.Run(ctx) })
	g.Go(func() error { return a.engine.Run(ctx) })
	return g.Wait()
}

func (a *Application) HandleHome(c echo.Context) error {
	baseURL := a.baseURL(c)
	return c.JSON(http.StatusOK, &homeResponse{
		Session:   a.engine.Session(),
		JoinURL:   baseURL + "/join",
		JoinQRURL: baseURL + "/join/qr.png",
		StatusURL: baseURL + "/status",
	})
}

func (a *Application) HandleJoin(c echo.Context) error {
	ticket, position, err := a.engine.IssueTicket()
	if err != nil {
		return a.respondError(c, err)
	}

	baseURL := a.baseURL(c)
	return c.JSON(http.StatusCreated, &joinResponse{
		Ticket:               int(ticket),
		Position:             position,
		EstimatedWaitMinutes: a.engine.EstimateWaitMinutes(position),
		StatusURL:            fmt.Sprintf("%v/status/%v", baseURL, ticket),
		QRURL:                fmt.Sprintf("%v/status/%v/qr.png", baseURL, ticket),
	})
}

func (a *Application) HandleJoinQR(c echo.Context) error {
	return a.respondQR(c, a.baseURL(c)+"/join")
}

func (a *Application) HandleStatus(c echo.Context) error {
	status, err := a.engine.QueryStatus()
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(http.StatusOK, &statusResponse{
		StatusServerEvent: msg.NewStatusServerEvent(status),
		BusinessName:      status.Session.BusinessName,
	})
}

func (a *Application) HandleTicketStatus(c echo.Context) error {
	ticket, err := queue.ParseTicket(c.Param("ticket"))
	if err != nil {
		return a.respondError(c, err)
	}

	info, err := a.engine.QueryTicket(ticket)
	if err != nil {
		return a.respondError(c, err)
	}

	return c.JSON(http.StatusOK, &ticketStatusResponse{
		TicketServerEvent: msg.NewTicketServerEvent(info, a.engine),
		CurrentServing:    msg.CurrentServing(info.Serving),
	})
}

func (a *Application) HandleTicketQR(c echo.Context) error {
	ticket, err := queue.ParseTicket(c.Param("ticket"))
	if err != nil {
		return a.respondError(c, err)
	}
	return a.respondQR(c, fmt.Sprintf("%v/status/%v", a.baseURL(c), ticket))
}

// HandleWs upgrades to a websocket that receives live status. The
// optional ticket query param makes the client follow one ticket.
func (a *Application) HandleWs(c echo.Context) error {
	watching := queue.NoTicket
	if raw := c.QueryParam("ticket"); raw != "" {
		ticket, err := queue.ParseTicket(raw)
		if err != nil {
			return a.respondError(c, err)
		}
		watching = ticket
	}

	conn, err := a.wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		a.logger.Warnf("cannot upgrade ws conn %v", err)
		return nil
	}

	pingPeriod := time.Duration(*a.config.PingIntervalSeconds) * time.Second
	client.NewClient(conn, a.hub, c.RealIP(), watching, pingPeriod).Run()
	return nil
}

func (a *Application) HandleAdminLogin(c echo.Context) error {
	req := &loginRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "invalid login request"})
	}

	token, err := a.adminTokens.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWrongPassword) {
			a.logger.Warnf("admin login failed ip[%v]", c.RealIP())
			return c.JSON(http.StatusUnauthorized, &errorResponse{Error: err.Error()})
		}
		return a.respondError(c, err)
	}

	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.adminTokens.TTL().Seconds()),
	})

	a.logger.Infof("admin logged in ip[%v]", c.RealIP())
	return a.respondMutation(c, http.StatusOK, &loginResponse{Next: overviewPath})
}

func (a *Application) HandleAdminLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.NoContent(http.StatusNoContent)
}

// RequireAdmin guards admin routes with the token cookie. Everything
// passes when no admin password is configured.
func (a *Application) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.adminTokens.Open() {
			return next(c)
		}

		cookie, err := c.Cookie(auth.CookieName)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "admin login required", Next: "/admin/login"})
		}

		if err := a.adminTokens.Verify(cookie.Value); err != nil {
			a.logger.Debugf("reject admin token ip[%v] %v", c.RealIP(), err)
			return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "admin login required", Next: "/admin/login"})
		}

		return next(c)
	}
}

func (a *Application) HandleActivate(c echo.Context) error {
	req := &activateRequest{}
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "invalid activate request"})
	}

	session := a.engine.Activate(strings.TrimSpace(req.BusinessName), strings.TrimSpace(req.Operator))
	return a.respondMutation(c, http.StatusOK, &session)
}

func (a *Application) HandleDeactivate(c echo.Context) error {
	a.engine.Deactivate()
	session := a.engine.Session()
	return a.respondMutation(c, http.StatusOK, &session)
}

func (a *Application) HandleServeNext(c echo.Context) error {
	serving, err := a.engine.ServeNext()
	if err != nil {
		return a.respondError(c, err)
	}
	return a.respondMutation(c, http.StatusOK, &ticketResponse{Ticket: int(serving)})
}

func (a *Application) HandleAddManual(c echo.Context) error {
	ticket, err := a.engine.AddManualTicket()
	if err != nil {
		return a.respondError(c, err)
	}
	return a.respondMutation(c, http.StatusCreated, &ticketResponse{Ticket: int(ticket)})
}

func (a *Application) HandleRemove(c echo.Context) error {
	return a.handleTicketMutation(c, a.engine.RemoveTicket)
}

func (a *Application) HandleMarkMissing(c echo.Context) error {
	return a.handleTicketMutation(c, a.engine.MarkMissing)
}

func (a *Application) HandleRecall(c echo.Context) error {
	return a.handleTicketMutation(c, a.engine.RecallTicket)
}

func (a *Application) HandleOverview(c echo.Context) error {
	status, err := a.engine.QueryStatus()
	if err != nil {
		return a.respondError(c, err)
	}

	missing := make([]int, 0, len(status.Missing))
	for _, ticket := range status.Missing {
		missing = append(missing, int(ticket))
	}

	return c.JSON(http.StatusOK, &overviewResponse{
		Session:            status.Session,
		Status:             msg.NewStatusServerEvent(status),
		Missing:            missing,
		Stats:              a.engine.Stats(),
		PerCustomerMinutes: a.settings.PerCustomerMinutes(),
	})
}

func (a *Application) handleTicketMutation(c echo.Context, mutate func(queue.Ticket) error) error {
	ticket, err := queue.ParseTicket(c.Param("ticket"))
	if err != nil {
		return a.respondError(c, err)
	}

	if err := mutate(ticket); err != nil {
		return a.respondError(c, err)
	}
	return a.respondMutation(c, http.StatusOK, &ticketResponse{Ticket: int(ticket)})
}

// Form posts from a browser are redirected back to the overview,
// anything else gets the body as JSON.
func (a *Application) respondMutation(c echo.Context, code int, body any) error {
	if isFormPost(c) {
		return c.Redirect(http.StatusSeeOther, overviewPath)
	}
	return c.JSON(code, body)
}

func isFormPost(c echo.Context) bool {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(contentType, echo.MIMEApplicationForm)
}

// Browser forms hitting an inactive queue are sent to the activation
// form, other callers get the error as JSON.
func (a *Application) respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, queue.ErrNotActive) && isFormPost(c):
		return c.Redirect(http.StatusSeeOther, activatePath)
	case errors.Is(err, queue.ErrNotActive):
		return c.JSON(http.StatusConflict, &errorResponse{Error: err.Error(), Next: activatePath})
	case errors.Is(err, queue.ErrNotFound):
		return c.JSON(http.StatusNotFound, &errorResponse{Error: err.Error()})
	case errors.Is(err, queue.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: err.Error()})
	default:
		a.logger.Errorf("%v %v unexpected err %v", c.Request().Method, c.Request().URL.Path, err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "internal server error"})
	}
}

func (a *Application) respondQR(c echo.Context, content string) error {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return a.respondError(c, fmt.Errorf("cannot encode qr code: %w", err))
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (a *Application) baseURL(c echo.Context) string {
	if a.env.PublicURL != "" {
		return strings.TrimRight(a.env.PublicURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}
