// Copyright (c) 2026 MotoWorld. All rights reserved.
// Author: dev@motoworld.shop

package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// ErrAuthRequired signals that an operation needs a resolved identity.
// Callers recover by prompting for login; it is never a hard failure.
var ErrAuthRequired = errors.New("storefront: authentication required")

// # API Error

// APIError is a non-2xx response from the MotoWorld API, carrying the
// server's message verbatim so forms can display it unchanged.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    json.RawMessage
}

func (apiError *APIError) Error() string {
	if apiError.Message != "" {
		return fmt.Sprintf("api: %d %s", apiError.StatusCode, apiError.Message)
	}
	return fmt.Sprintf("api: unexpected status %d", apiError.StatusCode)
}

// # Client

/*
Client is the HTTP JSON consumer of the MotoWorld API.

It maintains both credential paths the browser holds implicitly: a
cookie jar for the ambient server session, and a bearer token read from
[Storage] on every request that asks for one. At most one path is used
per request.
*/
type Client struct {
	baseURL    string
	httpClient *http.Client
	storage    Storage
	logger     *slog.Logger
}

/*
NewClient constructs a [Client] against a MotoWorld API base URL.

Parameters:
  - baseURL: string: Server root, e.g. "https://motoworld.shop"
  - storage: Storage: Local state store for tokens and caches
  - logger: *slog.Logger

Returns:
  - *Client: Ready-to-use client with its own cookie jar
  - error: Malformed base URLs
*/
func NewClient(baseURL string, storage Storage, logger *slog.Logger) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("storefront: invalid base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar: jar,
			// Redirects are not followed: the API never issues them for JSON
			// endpoints, and /logout/ answers with a 302 the legacy pages
			// navigated through rather than a page this client should fetch.
			CheckRedirect: func(request *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		storage: storage,
		logger:  logger,
	}, nil
}

// AccessToken returns the stored bearer token under either legacy key.
func (client *Client) AccessToken() (string, bool) {
	return getEither(client.storage, KeyAuthToken, KeyAccessToken)
}

// # Request Plumbing

// requestOptions controls credential injection for one request.
type requestOptions struct {
	bearer bool // attach Authorization: Bearer from storage
}

/*
do issues one JSON request and decodes the response into target.

Non-2xx responses decode the server's {error, code, details} envelope
into an [*APIError]. A nil target discards the body. Redirect statuses
count as success on body-discarding calls, since the only redirecting
route is the /logout/ navigation.
*/
func (client *Client) do(context context.Context, method, path string, body any, target any, options requestOptions) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("storefront: failed to encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(context, method, client.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("storefront: failed to build request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	if options.bearer {
		token, ok := client.AccessToken()
		if !ok {
			return ErrAuthRequired
		}
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("storefront: request failed: %w", err)
	}
	defer response.Body.Close()

	redirected := target == nil && response.StatusCode >= 300 && response.StatusCode <= 399
	if (response.StatusCode < 200 || response.StatusCode > 299) && !redirected {
		return decodeAPIError(response)
	}

	if target == nil {
		io.Copy(io.Discard, response.Body)
		return nil
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("storefront: failed to decode response: %w", err)
	}
	return nil
}

// decodeAPIError maps the server's error envelope onto [*APIError],
// falling back to the raw status when the body is not that shape.
func decodeAPIError(response *http.Response) error {
	apiError := &APIError{StatusCode: response.StatusCode}

	var envelope struct {
		Error   string          `json:"error"`
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.NewDecoder(io.LimitReader(response.Body, 4096)).Decode(&envelope); err == nil {
		apiError.Message = envelope.Error
		apiError.Code = envelope.Code
		apiError.Details = envelope.Details
	}

	return apiError
}

// # Auth Endpoints

// loginResponse tolerates both token envelope generations: the flat
// {access, refresh} shape and the nested {tokens: {access, refresh}}.
type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Tokens  struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	User json.RawMessage `json:"user"`
}

// tokens normalizes the two payload shapes, flat shape winning.
func (response loginResponse) tokens() (access, refresh string) {
	access, refresh = response.Access, response.Refresh
	if access == "" {
		access, refresh = response.Tokens.Access, response.Tokens.Refresh
	}
	return access, refresh
}

/*
Login authenticates against POST /api/auth/login/ and persists the
returned credentials under both legacy key spellings.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *Identity: The authenticated profile
  - error: *APIError on rejected credentials
*/
func (client *Client) Login(context context.Context, username, password string) (*Identity, error) {
	payload := map[string]string{"username": username, "password": password}

	var response loginResponse
	if err := client.do(context, http.MethodPost, "/api/auth/login/", payload, &response, requestOptions{}); err != nil {
		return nil, err
	}

	return client.storeCredentials(response)
}

// RegisterInput carries the fields of POST /api/auth/register/.
type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Register creates an account and persists the issued credentials,
// mirroring Login's side effects.
func (client *Client) Register(context context.Context, input RegisterInput) (*Identity, error) {
	var response loginResponse
	if err := client.do(context, http.MethodPost, "/api/auth/register/", input, &response, requestOptions{}); err != nil {
		return nil, err
	}

	return client.storeCredentials(response)
}

// storeCredentials persists tokens and the identity cache, then parses
// the identity for the caller.
func (client *Client) storeCredentials(response loginResponse) (*Identity, error) {
	access, refresh := response.tokens()
	if access != "" {
		if err := setBoth(client.storage, KeyAuthToken, KeyAccessToken, access); err != nil {
			return nil, err
		}
	}
	if refresh != "" {
		if err := setBoth(client.storage, KeyRefreshToken, KeyRefreshAlt, refresh); err != nil {
			return nil, err
		}
	}

	var identity Identity
	if err := json.Unmarshal(response.User, &identity); err != nil {
		return nil, fmt.Errorf("storefront: failed to parse identity: %w", err)
	}
	if err := setBoth(client.storage, KeyCurrentUser, KeyUser, string(response.User)); err != nil {
		return nil, err
	}

	return &identity, nil
}

/*
Profile fetches GET /api/auth/profile/ over one credential path.

Parameters:
  - context: context.Context
  - bearer: bool: true for Authorization header, false for cookie only

Returns:
  - *Identity: The resolved profile
  - error: *APIError on 4xx/5xx, transport errors otherwise
*/
func (client *Client) Profile(context context.Context, bearer bool) (*Identity, error) {
	var identity Identity
	if err := client.do(context, http.MethodGet, "/api/auth/profile/", nil, &identity, requestOptions{bearer: bearer}); err != nil {
		return nil, err
	}
	return &identity, nil
}

// # Catalog Endpoints

// categoryTreeResponse accepts both a bare array and the paginated
// {results: [...]} wrapper for the tree endpoint.
type categoryTreeResponse struct {
	nodes []CategoryNode
}

func (response *categoryTreeResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &response.nodes)
	}

	var wrapped struct {
		Results []CategoryNode `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	response.nodes = wrapped.Results
	return nil
}

// CategoryTree fetches the category hierarchy. Failures degrade to an
// empty tree so navigation renders without blocking the page.
func (client *Client) CategoryTree(context context.Context) []CategoryNode {
	var response categoryTreeResponse
	if err := client.do(context, http.MethodGet, "/api/products/categories/tree/", nil, &response, requestOptions{}); err != nil {
		client.logger.Warn("category_tree_unavailable", slog.String("error", err.Error()))
		return []CategoryNode{}
	}
	if response.nodes == nil {
		return []CategoryNode{}
	}
	return response.nodes
}

// Featured fetches the featured product strip with the same silent
// degradation as CategoryTree.
func (client *Client) Featured(context context.Context) []ProductSummary {
	var products []ProductSummary
	if err := client.do(context, http.MethodGet, "/api/products/featured/", nil, &products, requestOptions{}); err != nil {
		client.logger.Warn("featured_unavailable", slog.String("error", err.Error()))
		return []ProductSummary{}
	}
	if products == nil {
		products = []ProductSummary{}
	}
	return products
}

// Products fetches one catalog page with the given query values.
func (client *Client) Products(context context.Context, values url.Values) (*ProductPage, error) {
	path := "/api/products/"
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page ProductPage
	if err := client.do(context, http.MethodGet, path, nil, &page, requestOptions{}); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []ProductSummary{}
	}
	return &page, nil
}

// Suggestions fetches typeahead groups for a search query.
func (client *Client) Suggestions(context context.Context, query string) (*SuggestionGroups, error) {
	values := url.Values{"q": {query}}

	var response struct {
		Suggestions SuggestionGroups `json:"suggestions"`
	}
	if err := client.do(context, http.MethodGet, "/api/products/search/suggestions/?"+values.Encode(), nil, &response, requestOptions{}); err != nil {
		return nil, err
	}
	return &response.Suggestions, nil
}

// # Cart Endpoints

// FetchCart reads the authoritative server cart.
func (client *Client) FetchCart(context context.Context) (*CartView, error) {
	var cart CartView
	if err := client.do(context, http.MethodGet, "/api/orders/cart/", nil, &cart, requestOptions{bearer: true}); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []LineItem{}
	}
	return &cart, nil
}

// PostCartAdd adds one line item to the server cart.
func (client *Client) PostCartAdd(context context.Context, productID int64, variantID *int64, quantity int) error {
	payload := map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}
	if variantID != nil {
		payload["variant_id"] = *variantID
	}

	return client.do(context, http.MethodPost, "/api/orders/cart/add/", payload, nil, requestOptions{bearer: true})
}

// Logout performs the server-side half of logout: a plain navigation to
// the session-invalidating route. Errors are reported, not fatal — the
// local clear has already happened by the time this runs.
func (client *Client) Logout(context context.Context) error {
	return client.do(context, http.MethodGet, "/logout/", nil, nil, requestOptions{})
}
