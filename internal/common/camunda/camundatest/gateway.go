// internal/common/camunda/camundatest/gateway.go
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"google.golang.org/grpc"
)

// Gateway stands in for the zeebe gateway behind real job commands. It keeps
// every complete, fail and throw request together with the state of the
// context it arrived on.
type Gateway struct {
	pb.GatewayClient

	// Err, when set, is returned by every command.
	Err error

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
	ctxErrs   []error
}

func (g *Gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return &pb.CompleteJobResponse{}, g.Err
}

func (g *Gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return &pb.FailJobResponse{}, g.Err
}

func (g *Gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return &pb.ThrowErrorResponse{}, g.Err
}

func (g *Gateway) Completed() []*pb.CompleteJobRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), g.completed...)
}

func (g *Gateway) Failed() []*pb.FailJobRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), g.failed...)
}

func (g *Gateway) Thrown() []*pb.ThrowErrorRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), g.thrown...)
}

// ContextErrors lists ctx.Err() for every command, in arrival order. A nil
// entry means the command was sent on a live context.
func (g *Gateway) ContextErrors() []error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]error(nil), g.ctxErrs...)
}

// JobClient builds the zeebe client's own commands on top of g.
func (g *Gateway) JobClient() worker.JobClient {
	return jobClient{gateway: g}
}

type jobClient struct {
	gateway *Gateway
}

func (c jobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c jobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c jobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

func noRetry(context.Context, error) bool { return false }

// Job returns an activated job carrying variables as its JSON payload.
func Job(key int64, taskType, variables string, retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               taskType,
		Variables:          variables,
		Retries:            retries,
		ProcessInstanceKey: key * 10,
	}}
}
