package etherlite

import (
	"context"

	"github.com/sirupsen/logrus"
)

/*
A decoded event log. "Event" is the ABI event whose selector matched topic 0,
or nil when no known event decodes the log; "Args" and "Values" are empty in
that case and "Raw" still holds the original entry.

"Args" lists the event parameters in declaration order. "Values" holds the
same values keyed by parameter name ("arg<N>" for unnamed ones). See
"AbiEvent.DecodeLog" for the Go types and for the treatment of hashed indexed
parameters.
*/
type LogEntry struct {
	Address     Address
	BlockNumber uint64
	BlockHash   Hash
	TxHash      Hash
	LogIndex    uint64
	Event       *AbiEvent
	Args        []interface{}
	Values      map[string]interface{}
	Raw         RawLog
}

// Name of the decoded event, or "" for undecoded logs.
func (self LogEntry) EventName() string {
	if self.Event == nil {
		return ""
	}
	return self.Event.Name
}

/*
Criteria for "Client.GetLogs". Events and addresses are each optional; when
both are given, a log must match both. Multiple events or addresses are
alternatives. A nil block bound means "earliest" or "latest" respectively.

Anonymous events have no selector in topic 0, so the node can't filter them.
A query that includes one fetches every log in range for the addresses and
keeps those that decode as one of the queried events.
*/
type LogQuery struct {
	Events    []*AbiEvent
	Addresses []Address
	FromBlock BlockNumber
	ToBlock   BlockNumber
}

/*
Converts the query into the node's filter format. Events constrain topic 0,
unless one of them is anonymous; see "LogQuery".
*/
func (self LogQuery) Filter() LogFilter {
	out := LogFilter{
		FromBlock: self.FromBlock,
		ToBlock:   self.ToBlock,
		Address:   self.Addresses,
	}
	if out.FromBlock == nil {
		out.FromBlock = BlockNumberEarliest
	}
	if out.ToBlock == nil {
		out.ToBlock = BlockNumberLatest
	}

	if self.hasAnonymous() {
		return out
	}

	var selectors []Word
	for _, event := range self.Events {
		if event != nil {
			selectors = append(selectors, event.Selector)
		}
	}
	if len(selectors) > 0 {
		out.Topics = [][]Word{selectors}
	}
	return out
}

func (self LogQuery) hasAnonymous() bool {
	for _, event := range self.Events {
		if event != nil && event.Anonymous {
			return true
		}
	}
	return false
}

// Drops logs the node couldn't filter out: those that didn't decode as one of
// the queried events.
func (self LogQuery) keep(logs []LogEntry) []LogEntry {
	if !self.hasAnonymous() {
		return logs
	}

	wanted := map[*AbiEvent]bool{}
	for _, event := range self.Events {
		wanted[event] = true
	}

	out := logs[:0]
	for _, log := range logs {
		if log.Event != nil && wanted[log.Event] {
			out = append(out, log)
		}
	}
	return out
}

/*
Decodes raw logs with the given events, matching each log's topic 0 against
the event selectors. Logs that no selector matches are tried against the
anonymous events in order. Logs that no event decodes are kept with a nil
"Event". This includes logs whose topic 0 matches but whose layout doesn't,
such as the ERC-20 and ERC-721 "Transfer" events, which share a signature but
differ in indexing.
*/
func DecodeLogs(raw []RawLog, events []*AbiEvent) []LogEntry {
	index := eventIndex(events)
	out := make([]LogEntry, len(raw))
	for i, log := range raw {
		out[i] = decodeLog(log, index)
	}
	return out
}

type logDecoder struct {
	topics    map[Word]*AbiEvent
	anonymous []*AbiEvent
}

func eventIndex(events []*AbiEvent) logDecoder {
	out := logDecoder{topics: make(map[Word]*AbiEvent, len(events))}
	for _, event := range events {
		switch {
		case event == nil:
		case event.Anonymous:
			out.anonymous = append(out.anonymous, event)
		default:
			if _, ok := out.topics[event.Selector]; !ok {
				out.topics[event.Selector] = event
			}
		}
	}
	return out
}

func decodeLog(log RawLog, index logDecoder) LogEntry {
	out := LogEntry{
		Address:     log.Address,
		BlockNumber: uint64(log.BlockNumber),
		BlockHash:   log.BlockHash,
		TxHash:      log.TransactionHash,
		LogIndex:    uint64(log.LogIndex),
		Raw:         log,
	}

	if len(log.Topics) > 0 {
		if event := index.topics[log.Topics[0]]; event != nil {
			return withDecodedEvent(out, event)
		}
	}

	for _, event := range index.anonymous {
		decoded := withDecodedEvent(out, event)
		if decoded.Event != nil {
			return decoded
		}
	}
	return out
}

func withDecodedEvent(out LogEntry, event *AbiEvent) LogEntry {
	args, err := event.DecodeLog(out.Raw.Topics, out.Raw.Data)
	if err != nil {
		return out
	}
	out.Event = event
	out.Args = args
	out.Values = namedValues(event.Inputs, args)
	return out
}

/*
Fetches logs matching the query via "eth_getLogs" and decodes them with the
queried events. Without events in the query, logs come back undecoded; use
"ContractInstance.GetLogs" to decode with a whole contract's ABI.
*/
func (self *Client) GetLogs(ctx context.Context, query LogQuery) ([]LogEntry, error) {
	return self.getLogs(ctx, query, query.Events)
}

func (self *Client) getLogs(ctx context.Context, query LogQuery, decoders []*AbiEvent) ([]LogEntry, error) {
	raw, err := EthGetLogs(ctx, self.trans, query.Filter())
	if err != nil {
		return nil, err
	}
	if query.hasAnonymous() {
		decoders = query.Events
	}

	self.log.WithFields(logrus.Fields{
		"events":    len(query.Events),
		"addresses": len(query.Addresses),
		"found":     len(raw),
	}).Debug("fetched logs")

	return query.keep(DecodeLogs(raw, decoders)), nil
}
