package bitaps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/postmix/forwardd/pkg/circuitbreaker"
)

// ListOptions narrows the window of the transactions listing.
type ListOptions struct {
	From  int64
	To    int64
	Limit int
	Page  int
}

// Service is the interface of the bitaps payment forwarding gateway.
type Service interface {
	// CreateForwardingAddress requests a new one-time deposit address that
	// sweeps received funds to the request's forwarding address.
	CreateForwardingAddress(
		ctx context.Context, req CreateAddressRequest,
	) (*ForwardingAddressReply, error)
	// GetAddressState requests status and statistics of a payment address.
	GetAddressState(
		ctx context.Context, address string, headers map[string]string,
	) (*RawAddressState, error)
	// ListTransactions requests the list of transactions received on a
	// payment address.
	ListTransactions(
		ctx context.Context, address string, headers map[string]string,
		opts ListOptions,
	) ([]RawTransaction, error)
}

type bitaps struct {
	apiURL string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
}

// NewService returns a new bitaps service reachable at the given API url,
// ie. https://api.bitaps.com/btc/v1.
func NewService(apiURL string) (Service, error) {
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("invalid api url: %s", err)
	}
	return &bitaps{
		apiURL: apiURL,
		client: newHTTPClient(defaultRequestTimeout),
		cb:     circuitbreaker.NewCircuitBreaker(),
	}, nil
}

func (b *bitaps) CreateForwardingAddress(
	ctx context.Context, req CreateAddressRequest,
) (*ForwardingAddressReply, error) {
	body, _ := json.Marshal(req)
	endpoint := fmt.Sprintf("%s/create/payment/address", b.apiURL)

	status, resp, err := b.doRequest(ctx, "POST", endpoint, string(body), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("create payment address: %s", resp)
	}

	return NewForwardingAddressReplyFromJSON([]byte(resp))
}

func (b *bitaps) GetAddressState(
	ctx context.Context, address string, headers map[string]string,
) (*RawAddressState, error) {
	endpoint := fmt.Sprintf("%s/payment/address/state/%s", b.apiURL, address)

	status, resp, err := b.doRequest(ctx, "GET", endpoint, "", headers)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get address state: %s", resp)
	}

	state := &RawAddressState{}
	if err := json.Unmarshal([]byte(resp), state); err != nil {
		return nil, fmt.Errorf("invalid address state reply: %s", err)
	}
	return state, nil
}

func (b *bitaps) ListTransactions(
	ctx context.Context, address string, headers map[string]string,
	opts ListOptions,
) ([]RawTransaction, error) {
	endpoint := fmt.Sprintf(
		"%s/payment/address/transactions/%s", b.apiURL, address,
	)
	if query := listQuery(opts); len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query)
	}

	status, resp, err := b.doRequest(ctx, "GET", endpoint, "", headers)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list address transactions: %s", resp)
	}

	reply := &txListReply{}
	if err := json.Unmarshal([]byte(resp), reply); err != nil {
		return nil, fmt.Errorf("invalid transactions reply: %s", err)
	}
	for i := range reply.TxList {
		if err := reply.TxList[i].Validate(); err != nil {
			return nil, err
		}
	}
	return reply.TxList, nil
}

func (b *bitaps) doRequest(
	ctx context.Context, method, endpoint, body string,
	headers map[string]string,
) (int, string, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		status, resp, err := newHTTPRequest(
			ctx, b.client, method, endpoint, body, headers,
		)
		if err != nil {
			return nil, err
		}
		if status >= http.StatusInternalServerError {
			return nil, fmt.Errorf("gateway replied with status %d", status)
		}
		return httpResponse{status, resp}, nil
	})
	if err != nil {
		return 0, "", err
	}

	r := res.(httpResponse)
	return r.status, r.body, nil
}

func listQuery(opts ListOptions) string {
	query := url.Values{}
	if opts.From > 0 {
		query.Set("from", strconv.FormatInt(opts.From, 10))
	}
	if opts.To > 0 {
		query.Set("to", strconv.FormatInt(opts.To, 10))
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	return query.Encode()
}
