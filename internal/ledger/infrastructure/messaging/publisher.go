// 包 messaging 提供凭证过账事件的 Kafka 发布实现。
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wyfcoding/tradingledger/internal/ledger/domain"
)

// entryPostedEvent 过账集成事件载荷
type entryPostedEvent struct {
	EntryNo     string          `json:"entry_no"`
	EntryDate   time.Time       `json:"entry_date"`
	Description string          `json:"description"`
	Lines       []entryLineItem `json:"lines"`
}

type entryLineItem struct {
	AccountID uint   `json:"account_id"`
	Debit     string `json:"debit"`
	Credit    string `json:"credit"`
}

// EntryEventPublisher domain.EntryPublisher 的 Kafka 实现。
type EntryEventPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewEntryEventPublisher(brokers []string, topic string) *EntryEventPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
	}
	return &EntryEventPublisher{writer: writer, topic: topic}
}

// PublishEntryPosted 发布凭证过账事件，key 为凭证号。
func (p *EntryEventPublisher) PublishEntryPosted(ctx context.Context, entry *domain.JournalEntry) error {
	event := entryPostedEvent{
		EntryNo:     entry.EntryNo,
		EntryDate:   entry.EntryDate,
		Description: entry.Description,
		Lines:       make([]entryLineItem, 0, len(entry.Lines)),
	}
	for _, line := range entry.Lines {
		event.Lines = append(event.Lines, entryLineItem{
			AccountID: line.AccountID,
			Debit:     line.DebitAmount.String(),
			Credit:    line.CreditAmount.String(),
		})
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(entry.EntryNo),
		Value: data,
	})
}

func (p *EntryEventPublisher) Close() error {
	return p.writer.Close()
}
