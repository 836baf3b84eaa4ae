package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRef decouples domain messages from the protoactor PID type; the
// actorutil request helpers convert back when replying.
type ActorRef actor.PID

// ActorRequest is a message that may carry an explicit reply target instead
// of relying on the implicit sender.
type ActorRequest interface {
	ReplyTo() *ActorRef
}

// ActorResponse is a reply that can transport an error back to the caller,
// e.g. the health responses served to the HTTP healthcheck.
type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// ActorRequestMixIn is embedded by request messages to satisfy ActorRequest.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

// ActorResponseMixIn is embedded by response messages to satisfy
// ActorResponse.
type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}
