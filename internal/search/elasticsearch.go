package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/registrar/config"
	"example.com/registrar/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides integration with Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexPayment indexes a registration's payment record for back-office search
func (c *ElasticClient) IndexPayment(ctx context.Context, reg *models.Registration, event *models.Event) error {
	log.Info().Str("registration_id", reg.ID.String()).Msg("indexing payment")

	doc := map[string]interface{}{
		"registration_id": reg.ID.String(),
		"event_id":        reg.EventID.String(),
		"event_title":     event.Title,
		"event_date":      event.Date,
		"user_id":         reg.UserID.String(),
		"payment_status":  reg.PaymentStatus,
		"amount_paid":     reg.AmountPaid,
		"currency":        event.Currency,
		"payment_date":    reg.PaymentDate,
	}
	if reg.PaymentID != nil {
		doc["payment_id"] = *reg.PaymentID
	}
	if reg.PaymentMethod != nil {
		doc["payment_method"] = *reg.PaymentMethod
	}
	if reg.RefundID != nil {
		doc["refund_id"] = *reg.RefundID
		doc["refund_date"] = reg.RefundDate
		doc["refund_amount"] = reg.RefundAmount
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal payment document")
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: reg.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Str("registration_id", reg.ID.String()).Msg("payment indexed successfully")
	return nil
}

// SearchPayments searches indexed payments with the given criteria
func (c *ElasticClient) SearchPayments(ctx context.Context, query map[string]interface{}) ([]map[string]interface{}, error) {
	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
