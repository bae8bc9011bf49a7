package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
)

// errRateWait marks a request dropped because the rate limiter could not
// admit it before the context deadline.
var errRateWait = errors.New("rate limit wait")

// LoginResult is the identity granted by the backend.
type LoginResult struct {
	Token     string
	Principal model.Principal
}

// Client exposes the backend service operations the console relies on.
type Client interface {
	Login(ctx context.Context, username, password string) (LoginResult, error)

	ListFarmers(ctx context.Context) ([]model.Farmer, error)
	CreateFarmer(ctx context.Context, in model.FarmerInput) error
	UpdateFarmer(ctx context.Context, id int64, in model.FarmerInput) error
	DeleteFarmer(ctx context.Context, id int64) error
	SetFarmerApproval(ctx context.Context, id int64, status model.State) error

	ListProducts(ctx context.Context) ([]model.Product, error)
	CreateProduct(ctx context.Context, in model.ProductInput) error
	UpdateProduct(ctx context.Context, id int64, in model.ProductInput) error
	DeleteProduct(ctx context.Context, id int64) error

	ListOrders(ctx context.Context) ([]model.Order, error)
	CreateOrder(ctx context.Context, in model.OrderInput, orderedBy int64) error
	SetOrderStatus(ctx context.Context, id int64, status model.State) error
	ScheduleDelivery(ctx context.Context, id int64, date time.Time) error
	Invoice(ctx context.Context, id int64) ([]byte, error)

	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, in model.UserInput) error
	UpdateUser(ctx context.Context, id int64, in model.UserInput) error
	DeleteUser(ctx context.Context, id int64) error

	ListTrainings(ctx context.Context) ([]model.Training, error)
	CreateTraining(ctx context.Context, in model.TrainingInput) error
	UpdateTraining(ctx context.Context, id int64, in model.TrainingInput) error
	DeleteTraining(ctx context.Context, id int64) error
}

// TokenSource yields the bearer token of the live session.
type TokenSource interface {
	Token() string
}

// Options tune HTTPClient.
type Options struct {
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

// HTTPClient implements Client over the backend REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewHTTPClient creates the backend client. A non-positive rate limit
// disables client-side limiting.
func NewHTTPClient(baseURL string, tokens TokenSource, logger *zap.Logger, opts Options) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("backend url must be absolute")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HTTPClient{
		baseURL:    parsed,
		tokens:     tokens,
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// Login exchanges credentials for a bearer token and principal.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	resp, err := c.send(ctx, "login", http.MethodPost, "/auth/login", loginRequest{Username: username, Password: password}, false)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return LoginResult{}, ctxErr
		}
		if errors.Is(err, errRateWait) {
			return LoginResult{}, err
		}
		return LoginResult{}, &domainErrors.AuthError{Op: "login", Err: fmt.Errorf("%w: %v", domainErrors.ErrUnreachable, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return LoginResult{}, &domainErrors.AuthError{Op: "login", Err: domainErrors.ErrInvalidCredentials}
	case resp.StatusCode >= http.StatusBadRequest:
		c.logFailure("login", resp)
		return LoginResult{}, &domainErrors.AuthError{Op: "login", Err: domainErrors.Rejected("login", resp.StatusCode)}
	}

	var data loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return LoginResult{}, &domainErrors.AuthError{Op: "login", Err: fmt.Errorf("%w: decode response: %v", domainErrors.ErrRejected, err)}
	}
	role := model.Role(data.Role)
	if data.Token == "" || !role.IsValid() {
		return LoginResult{}, &domainErrors.AuthError{Op: "login", Err: fmt.Errorf("%w: unusable identity (role %q)", domainErrors.ErrRejected, data.Role)}
	}

	return LoginResult{
		Token:     data.Token,
		Principal: model.Principal{ID: int64(data.UserID), Username: username, Role: role},
	}, nil
}

func (c *HTTPClient) ListFarmers(ctx context.Context) ([]model.Farmer, error) {
	var rows []farmerDTO
	if err := c.do(ctx, "list farmers", http.MethodGet, "/farmers", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Farmer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *HTTPClient) CreateFarmer(ctx context.Context, in model.FarmerInput) error {
	return c.do(ctx, "create farmer", http.MethodPost, "/farmers", newFarmerRequest(in), nil)
}

func (c *HTTPClient) UpdateFarmer(ctx context.Context, id int64, in model.FarmerInput) error {
	return c.do(ctx, "update farmer", http.MethodPut, resource("farmers", id), newFarmerRequest(in), nil)
}

func (c *HTTPClient) DeleteFarmer(ctx context.Context, id int64) error {
	return c.do(ctx, "delete farmer", http.MethodDelete, resource("farmers", id), nil, nil)
}

func (c *HTTPClient) SetFarmerApproval(ctx context.Context, id int64, status model.State) error {
	return c.do(ctx, "approve farmer", http.MethodPut, resource("farmers", id, "approve"), statusRequest{Status: status}, nil)
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]model.Product, error) {
	var rows []productDTO
	if err := c.do(ctx, "list products", http.MethodGet, "/products", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *HTTPClient) CreateProduct(ctx context.Context, in model.ProductInput) error {
	return c.do(ctx, "create product", http.MethodPost, "/products", newProductRequest(in), nil)
}

func (c *HTTPClient) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) error {
	return c.do(ctx, "update product", http.MethodPut, resource("products", id), newProductRequest(in), nil)
}

func (c *HTTPClient) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, "delete product", http.MethodDelete, resource("products", id), nil, nil)
}

func (c *HTTPClient) ListOrders(ctx context.Context) ([]model.Order, error) {
	var rows []orderDTO
	if err := c.do(ctx, "list orders", http.MethodGet, "/orders", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Order, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *HTTPClient) CreateOrder(ctx context.Context, in model.OrderInput, orderedBy int64) error {
	req := orderRequest{ProductID: in.ProductID, Quantity: in.Quantity, OrderedBy: orderedBy}
	return c.do(ctx, "create order", http.MethodPost, "/orders", req, nil)
}

func (c *HTTPClient) SetOrderStatus(ctx context.Context, id int64, status model.State) error {
	return c.do(ctx, "update order status", http.MethodPut, resource("orders", id, "status"), statusRequest{Status: status}, nil)
}

func (c *HTTPClient) ScheduleDelivery(ctx context.Context, id int64, date time.Time) error {
	req := scheduleRequest{DeliveryDate: dateOnly(&date)}
	return c.do(ctx, "schedule delivery", http.MethodPut, resource("orders", id, "schedule-delivery"), req, nil)
}

// Invoice downloads the binary invoice of an order.
func (c *HTTPClient) Invoice(ctx context.Context, id int64) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.do(ctx, "download invoice", http.MethodGet, resource("orders", id, "invoice"), nil, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []userDTO
	if err := c.do(ctx, "list users", http.MethodGet, "/users", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *HTTPClient) CreateUser(ctx context.Context, in model.UserInput) error {
	return c.do(ctx, "create user", http.MethodPost, "/users", newUserRequest(in), nil)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, id int64, in model.UserInput) error {
	return c.do(ctx, "update user", http.MethodPut, resource("users", id), newUserRequest(in), nil)
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, "delete user", http.MethodDelete, resource("users", id), nil, nil)
}

func (c *HTTPClient) ListTrainings(ctx context.Context) ([]model.Training, error) {
	var rows []trainingDTO
	if err := c.do(ctx, "list trainings", http.MethodGet, "/trainings", nil, &rows); err != nil {
		return nil, err
	}
	out := make([]model.Training, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (c *HTTPClient) CreateTraining(ctx context.Context, in model.TrainingInput) error {
	return c.do(ctx, "create training", http.MethodPost, "/trainings", newTrainingRequest(in), nil)
}

func (c *HTTPClient) UpdateTraining(ctx context.Context, id int64, in model.TrainingInput) error {
	return c.do(ctx, "update training", http.MethodPut, resource("trainings", id), newTrainingRequest(in), nil)
}

func (c *HTTPClient) DeleteTraining(ctx context.Context, id int64) error {
	return c.do(ctx, "delete training", http.MethodDelete, resource("trainings", id), nil, nil)
}

func newUserRequest(in model.UserInput) userRequest {
	return userRequest{Username: in.Username, Email: in.Email, Password: in.Password, Role: string(in.Role)}
}

func newTrainingRequest(in model.TrainingInput) trainingRequest {
	return trainingRequest{TrainingTitle: in.Title, Description: in.Description, ScheduledDate: dateOnly(in.ScheduledDate)}
}

func resource(collection string, id int64, sub ...string) string {
	parts := append([]string{"/", collection, strconv.FormatInt(id, 10)}, sub...)
	return path.Join(parts...)
}

// do performs an authenticated request. out may be nil, a *bytes.Buffer for
// binary bodies, or a value to decode JSON into.
func (c *HTTPClient) do(ctx context.Context, op, method, endpoint string, body, out any) error {
	resp, err := c.send(ctx, op, method, endpoint, body, true)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var serr *domainErrors.SyncError
		if errors.As(err, &serr) || errors.Is(err, errRateWait) {
			return err
		}
		c.logger.Warn("backend unreachable", zap.String("op", op), zap.Error(err))
		return domainErrors.Unreachable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		c.logFailure(op, resp)
		return domainErrors.Rejected(op, resp.StatusCode)
	}

	switch dst := out.(type) {
	case nil:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	case *bytes.Buffer:
		if _, err := dst.ReadFrom(resp.Body); err != nil {
			return domainErrors.Unreachable(op, err)
		}
		return nil
	default:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &domainErrors.SyncError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("%w: decode response: %v", domainErrors.ErrRejected, err)}
		}
		return nil
	}
}

func (c *HTTPClient) send(ctx context.Context, op, method, endpoint string, body any, authenticated bool) (*http.Response, error) {
	var token string
	if authenticated {
		if token = c.tokens.Token(); token == "" {
			return nil, &domainErrors.SyncError{Op: op, Err: fmt.Errorf("%w: no bearer token", domainErrors.ErrRejected)}
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %w: %v", errRateWait, context.DeadlineExceeded, err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	target := *c.baseURL
	target.Path = path.Join(target.Path, endpoint)

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

func (c *HTTPClient) logFailure(op string, resp *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	c.logger.Warn("backend request failed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("body", string(body)),
	)
}
