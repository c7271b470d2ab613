package projector

import (
	"context"
	"log/slog"

	"github.com/roach88/rollix/internal/frame"
	"github.com/roach88/rollix/internal/record"
)

// Upserter is the slice of the read model store the projector writes to.
type Upserter interface {
	Upsert(ctx context.Context, obj record.Object) error
}

// Projector maps frames to records and upserts them.
type Projector struct {
	store   Upserter
	decode  map[uint32]DecodeFunc
	objects map[uint64]ObjectDecodeFunc
	logger  *slog.Logger
}

// Option configures a Projector.
type Option func(*Projector)

// WithDecoder registers fn for tag, replacing any existing decoder.
func WithDecoder(tag uint32, fn DecodeFunc) Option {
	return func(p *Projector) {
		p.decode[tag] = fn
	}
}

// WithObjectKind registers fn for IndexedObjects whose index is kind.
func WithObjectKind(kind uint64, fn ObjectDecodeFunc) Option {
	return func(p *Projector) {
		p.objects[kind] = fn
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) {
		p.logger = l
	}
}

// New creates a projector writing to store.
func New(store Upserter, opts ...Option) *Projector {
	p := &Projector{
		store:   store,
		objects: defaultObjectKinds(),
		logger:  slog.Default(),
	}
	p.decode = map[uint32]DecodeFunc{
		TagPosition:      decodePosition,
		TagIndexedObject: resolveIndexed(p.objects),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Knows reports whether tag has a registered decoder.
func (p *Projector) Knows(tag uint32) bool {
	_, ok := p.decode[tag]
	return ok
}

// Decode runs the decoder registered for f.Tag without touching the store.
// ok is false when the tag is unknown.
func (p *Projector) Decode(f frame.Frame) (obj record.Object, ok bool, err error) {
	decode, ok := p.decode[f.Tag]
	if !ok {
		return nil, false, nil
	}
	obj, err = decode(f.Payload)
	if err != nil {
		return nil, true, &ProjectError{Code: ErrCodeDecodeFailed, Tag: f.Tag, Err: err}
	}
	return obj, true, nil
}

// Project decodes f and upserts the record it describes.
func (p *Projector) Project(ctx context.Context, f frame.Frame) Result {
	obj, known, err := p.Decode(f)
	if !known {
		p.logger.Debug("unknown frame tag", "tag", f.Tag, "length", len(f.Payload))
		return Result{Tag: f.Tag, Outcome: OutcomeUnknownTag}
	}
	if err != nil {
		p.logger.Warn("frame decode failed", "tag", f.Tag, "error", err)
		return Result{Tag: f.Tag, Outcome: OutcomeDecodeFailed, Err: err}
	}

	key := obj.Key()
	if err := p.store.Upsert(ctx, obj); err != nil {
		perr := &ProjectError{Code: ErrCodeStoreFailed, Tag: f.Tag, Err: err}
		p.logger.Error("projection store failure", "tag", f.Tag, "key", key.String(), "error", err)
		return Result{Tag: f.Tag, Outcome: OutcomeStoreFailed, Key: &key, Err: perr}
	}

	p.logger.Debug("projected", "tag", f.Tag, "key", key.String())
	return Result{Tag: f.Tag, Outcome: OutcomeUpserted, Key: &key}
}

// ProjectAll projects frames in order. A failed frame never stops the ones
// after it.
func (p *Projector) ProjectAll(ctx context.Context, frames []frame.Frame) Summary {
	var s Summary
	for _, f := range frames {
		s.Add(p.Project(ctx, f))
	}
	return s
}
