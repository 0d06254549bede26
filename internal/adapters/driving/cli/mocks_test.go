package cli

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/core/ports/driven"
)

type mockProvisioner struct {
	applied  bool
	ran      bool
	reset    bool
	deleted  bool
	applyErr error
	status   *domain.IndexerStatus
	sources  []domain.ResourceSummary
}

func (m *mockProvisioner) Apply(context.Context) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	m.applied = true
	return nil
}

func (m *mockProvisioner) Run(context.Context) error { m.ran = true; return nil }

func (m *mockProvisioner) Status(context.Context) (*domain.IndexerStatus, error) {
	if m.status == nil {
		return nil, errors.New("no status")
	}
	return m.status, nil
}

func (m *mockProvisioner) Reset(context.Context) error { m.reset = true; return nil }

func (m *mockProvisioner) DeleteAll(context.Context) error { m.deleted = true; return nil }

func (m *mockProvisioner) ListKnowledgeSources(context.Context) ([]domain.ResourceSummary, error) {
	return m.sources, nil
}

type mockQueryService struct {
	lastText string
	lastOpts domain.QueryOptions
	result   *domain.QueryResult
	err      error
}

func (m *mockQueryService) Query(_ context.Context, text string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	m.lastText = text
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{}, nil
}

type mockDiagnoser struct {
	report *domain.ACLReport
	err    error
}

func (m *mockDiagnoser) Diagnose(context.Context) (*domain.ACLReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

type mockTokens struct {
	token string
	err   error
}

func (m *mockTokens) Token(context.Context, string) (*oauth2.Token, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &oauth2.Token{AccessToken: m.token, TokenType: "Bearer"}, nil
}

type mockDirectory struct {
	group   *domain.Group
	members []domain.GroupMember
	err     error
}

func (m *mockDirectory) Group(context.Context, string) (*domain.Group, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.group, nil
}

func (m *mockDirectory) GroupMembers(context.Context, string) ([]domain.GroupMember, error) {
	return m.members, nil
}

var _ driven.DirectoryAPI = (*mockDirectory)(nil)

// setupTestServices wires mocks into the package-level service slots and
// returns a cleanup restoring the previous state.
func setupTestServices() (prov *mockProvisioner, query *mockQueryService, diag *mockDiagnoser, cleanup func()) {
	oldProv, oldQuery, oldDiag, oldTokens := provisioner, queryService, diagnoser, tokenProvider

	prov = &mockProvisioner{}
	query = &mockQueryService{}
	diag = &mockDiagnoser{}

	provisioner = prov
	queryService = query
	diagnoser = diag
	tokenProvider = &mockTokens{token: "delegated-token"}

	cleanup = func() {
		provisioner, queryService, diagnoser, tokenProvider = oldProv, oldQuery, oldDiag, oldTokens
	}
	return prov, query, diag, cleanup
}
