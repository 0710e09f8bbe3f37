// Package repository provides the DynamoDB-backed FAQ source for
// deployments where the corpus is curated in a table instead of a
// local file.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lms-chatbot/internal/domain"
)

// dynamodbAPI is the minimal DynamoDB interface required by FaqSource.
// Defined here for testability.
type dynamodbAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// FaqSource loads the FAQ corpus from a DynamoDB table. Items carry a
// numeric "pos" attribute fixing corpus order (Scan returns items
// unordered), plus "q", "a", and an optional "tags" list.
type FaqSource struct {
	api       dynamodbAPI
	tableName string
}

// NewFaqSource creates a FaqSource over the given table.
func NewFaqSource(api dynamodbAPI, tableName string) (*FaqSource, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &FaqSource{api: api, tableName: tableName}, nil
}

// Load scans the whole table and returns the entries in pos order. Any
// scan or decode failure is an error; the snapshot store retains the
// previous corpus in that case.
func (s *FaqSource) Load(ctx context.Context) ([]domain.FaqEntry, error) {
	type positioned struct {
		pos   int
		entry domain.FaqEntry
	}

	var items []positioned
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.tableName),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("repository: scan faq table: %w", err)
		}

		for _, item := range out.Items {
			pos, err := intAttr(item, "pos")
			if err != nil {
				return nil, fmt.Errorf("repository: decode pos: %w", err)
			}
			entry, err := itemToEntry(item)
			if err != nil {
				return nil, fmt.Errorf("repository: decode entry: %w", err)
			}
			items = append(items, positioned{pos: pos, entry: entry})
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].pos < items[j].pos })

	entries := make([]domain.FaqEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, it.entry)
	}
	return entries, nil
}

func itemToEntry(item map[string]types.AttributeValue) (domain.FaqEntry, error) {
	question, err := stringAttr(item, "q")
	if err != nil {
		return domain.FaqEntry{}, err
	}
	answer, err := stringAttr(item, "a")
	if err != nil {
		return domain.FaqEntry{}, err
	}
	tags, err := stringListAttr(item, "tags")
	if err != nil {
		return domain.FaqEntry{}, err
	}
	return domain.FaqEntry{Question: question, Answer: answer, Tags: tags}, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	av, ok := item[name]
	if !ok {
		return "", fmt.Errorf("attribute %q missing", name)
	}
	sv, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", name)
	}
	return sv.Value, nil
}

func intAttr(item map[string]types.AttributeValue, name string) (int, error) {
	av, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("attribute %q missing", name)
	}
	nv, ok := av.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", name)
	}
	n, err := strconv.Atoi(nv.Value)
	if err != nil {
		return 0, fmt.Errorf("attribute %q: %w", name, err)
	}
	return n, nil
}

// stringListAttr accepts either a list of strings or a string set;
// a missing attribute means no tags.
func stringListAttr(item map[string]types.AttributeValue, name string) ([]string, error) {
	av, ok := item[name]
	if !ok {
		return nil, nil
	}
	switch v := av.(type) {
	case *types.AttributeValueMemberL:
		out := make([]string, 0, len(v.Value))
		for _, el := range v.Value {
			sv, ok := el.(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("attribute %q has a non-string element", name)
			}
			out = append(out, sv.Value)
		}
		return out, nil
	case *types.AttributeValueMemberSS:
		return v.Value, nil
	default:
		return nil, fmt.Errorf("attribute %q is not a list", name)
	}
}
