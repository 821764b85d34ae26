package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"health-companion/internal/domain"
)

const (
	skPrefixAlert = "ALERT#"
	ttlDuration   = 30 * 24 * time.Hour // 30-day TTL
	defaultLimit  = 20
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client is the emergency alert journal backed by a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new journal Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func clientPK(clientID string) string {
	return "CLIENT#" + clientID
}

// alertSK sorts alerts chronologically; the id suffix keeps same-instant alerts apart.
func alertSK(ts time.Time, id string) string {
	return skPrefixAlert + ts.UTC().Format(time.RFC3339Nano) + "#" + id
}

func ttlValue(from time.Time) int64 {
	return from.Add(ttlDuration).Unix()
}

// NewAlertRecord constructs an AlertRecord with keys and TTL derived from the
// client id and the current time.
func NewAlertRecord(clientID string, score int, source domain.AlertSource, filenames []string) domain.AlertRecord {
	now := time.Now().UTC()
	id := newRecordID()
	return domain.AlertRecord{
		PK:        clientPK(clientID),
		SK:        alertSK(now, id),
		ID:        id,
		ClientID:  clientID,
		Score:     score,
		Source:    source,
		Filenames: filenames,
		RaisedAt:  now,
		TTL:       ttlValue(now),
	}
}

// RecordAlert persists a newly shown alert.
func (c *Client) RecordAlert(ctx context.Context, rec domain.AlertRecord) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: RecordAlert: PK and SK are required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                alertItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: RecordAlert: %w", err)
	}
	return nil
}

// SaveRaisedAlert builds and persists the journal entry for a shown alert.
func (c *Client) SaveRaisedAlert(ctx context.Context, clientID string, score int, source domain.AlertSource, filenames []string) (domain.AlertRecord, error) {
	rec := NewAlertRecord(clientID, score, source, filenames)
	if err := c.RecordAlert(ctx, rec); err != nil {
		return domain.AlertRecord{}, fmt.Errorf("repository: SaveRaisedAlert: %w", err)
	}
	return rec, nil
}

// AcknowledgeAlert stamps the time the user dismissed the alert.
func (c *Client) AcknowledgeAlert(ctx context.Context, rec domain.AlertRecord, at time.Time) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: AcknowledgeAlert: PK and SK are required")
	}
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: rec.PK},
			"SK": &types.AttributeValueMemberS{Value: rec.SK},
		},
		UpdateExpression:    aws.String("SET acknowledgedAt = :at"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":at": &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: AcknowledgeAlert: %w", err)
	}
	return nil
}

// ListAlerts returns the newest alerts for a client first.
func (c *Client) ListAlerts(ctx context.Context, clientID string, limit int) ([]domain.AlertRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: clientPK(clientID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixAlert},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: ListAlerts query: %w", err)
	}

	recs := make([]domain.AlertRecord, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToAlert(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListAlerts unmarshal: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func alertItem(rec domain.AlertRecord) map[string]types.AttributeValue {
	files := make([]types.AttributeValue, 0, len(rec.Filenames))
	for _, f := range rec.Filenames {
		files = append(files, &types.AttributeValueMemberS{Value: f})
	}
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: rec.PK},
		"SK":        &types.AttributeValueMemberS{Value: rec.SK},
		"alertId":   &types.AttributeValueMemberS{Value: rec.ID},
		"clientId":  &types.AttributeValueMemberS{Value: rec.ClientID},
		"score":     &types.AttributeValueMemberN{Value: strconv.Itoa(rec.Score)},
		"source":    &types.AttributeValueMemberS{Value: string(rec.Source)},
		"filenames": &types.AttributeValueMemberL{Value: files},
		"raisedAt":  &types.AttributeValueMemberS{Value: rec.RaisedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.TTL)},
	}
	if rec.AcknowledgedAt != nil {
		item["acknowledgedAt"] = &types.AttributeValueMemberS{Value: rec.AcknowledgedAt.UTC().Format(time.RFC3339Nano)}
	}
	return item
}

func itemToAlert(item map[string]types.AttributeValue) (domain.AlertRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.AlertRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.AlertRecord{}, err
	}
	id, err := strAttr(item, "alertId")
	if err != nil {
		return domain.AlertRecord{}, err
	}
	score, err := intAttr(item, "score")
	if err != nil {
		return domain.AlertRecord{}, err
	}
	raised, err := timeAttr(item, "raisedAt")
	if err != nil {
		return domain.AlertRecord{}, err
	}
	clientID, _ := strAttr(item, "clientId") // allow empty
	source, _ := strAttr(item, "source")     // allow empty

	rec := domain.AlertRecord{
		PK:        pk,
		SK:        sk,
		ID:        id,
		ClientID:  clientID,
		Score:     score,
		Source:    domain.AlertSource(source),
		Filenames: listAttr(item, "filenames"),
		RaisedAt:  raised,
	}
	if _, ok := item["acknowledgedAt"]; ok {
		ack, err := timeAttr(item, "acknowledgedAt")
		if err != nil {
			return domain.AlertRecord{}, err
		}
		rec.AcknowledgedAt = &ack
	}
	return rec, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return ts, nil
}

func listAttr(item map[string]types.AttributeValue, key string) []string {
	l, ok := item[key].(*types.AttributeValueMemberL)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(l.Value))
	for _, v := range l.Value {
		if s, ok := v.(*types.AttributeValueMemberS); ok {
			out = append(out, s.Value)
		}
	}
	return out
}

var newRecordID = func() string {
	return uuid.NewString()
}
