// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/lintdispatch/services/diagnostics"
	"github.com/AleutianAI/lintdispatch/services/pkgmodel"
)

// fakeInvoker records requests and answers with InvokeFunc, or a
// successful exit when InvokeFunc is nil.
type fakeInvoker struct {
	requests   []InvocationRequest
	InvokeFunc func(req InvocationRequest) (InvocationOutcome, error)
}

func (f *fakeInvoker) Invoke(_ context.Context, req InvocationRequest) (InvocationOutcome, error) {
	f.requests = append(f.requests, req)
	if f.InvokeFunc != nil {
		return f.InvokeFunc(req)
	}
	return InvocationOutcome{
		RunID:       req.RunID,
		TargetLabel: req.TargetLabel,
		Directory:   req.WorkingDirectory,
		Termination: TerminationExited,
	}, nil
}

func newTestPackage(t *testing.T, targets ...pkgmodel.Target) *pkgmodel.Package {
	t.Helper()
	pkg, err := pkgmodel.NewPackage("demo", "/pkg", targets)
	require.NoError(t, err)
	return pkg
}

func regular(name string) pkgmodel.Target {
	return pkgmodel.Target{Name: name, Directory: "/pkg/Sources/" + name, Kind: pkgmodel.KindRegular}
}

func TestDispatch_SingleTarget(t *testing.T) {
	inv := &fakeInvoker{}
	rec := diagnostics.NewRecorder()
	d := NewDispatcher(newTestPackage(t, regular("Foo"), regular("Bar")), inv, rec)

	summary, err := d.Dispatch(context.Background(), []string{"--target", "Foo", "lint"})
	require.NoError(t, err)

	require.Len(t, inv.requests, 1)
	req := inv.requests[0]
	assert.Equal(t, "/pkg/Sources/Foo", req.WorkingDirectory)
	assert.Equal(t, "Foo", req.TargetLabel)
	assert.Equal(t, []string{"lint"}, req.Arguments)
	assert.Equal(t, summary.RunID, req.RunID)
	assert.NotEmpty(t, summary.RunID)

	assert.Equal(t, 1, summary.Invoked)
	assert.Equal(t, 1, summary.Succeeded)
	assert.False(t, summary.HasFailures())
	assert.Zero(t, rec.Count(diagnostics.SeverityError))
}

func TestDispatch_AllTargetsSkipsNonSourceModules(t *testing.T) {
	inv := &fakeInvoker{}
	rec := diagnostics.NewRecorder()
	bin := pkgmodel.Target{Name: "Bin", Directory: "/pkg/Bin", Kind: pkgmodel.KindBinary}
	d := NewDispatcher(newTestPackage(t, regular("Foo"), bin), inv, rec)

	summary, err := d.Dispatch(context.Background(), []string{"lint"})
	require.NoError(t, err)

	require.Len(t, inv.requests, 1)
	assert.Equal(t, "Foo", inv.requests[0].TargetLabel)
	assert.Equal(t, 1, summary.Skipped)

	warnings := rec.Filter(diagnostics.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Target 'Bin' is not a source module; skipping it", warnings[0].Message)
}

func TestDispatch_RejectsCachePath(t *testing.T) {
	for _, args := range [][]string{
		{"lint", "--cache-path", "/tmp/x"},
		{"--cache-path=/tmp/x"},
		{"--target", "Foo", "--cache-path", "/tmp/x"},
	} {
		inv := &fakeInvoker{}
		rec := diagnostics.NewRecorder()
		d := NewDispatcher(newTestPackage(t, regular("Foo")), inv, rec)

		summary, err := d.Dispatch(context.Background(), args)
		require.Error(t, err)
		assert.Nil(t, summary)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.ErrorIs(t, err, ErrCachePathNotAllowed)

		var cerr *ConfigurationError
		assert.True(t, errors.As(err, &cerr))

		assert.Empty(t, inv.requests)
		assert.Equal(t, 1, rec.Count(diagnostics.SeverityError))
	}
}

func TestDispatch_EmptyPackageRunsAtRoot(t *testing.T) {
	inv := &fakeInvoker{}
	d := NewDispatcher(newTestPackage(t), inv, nil)

	summary, err := d.Dispatch(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, inv.requests, 1)
	assert.Equal(t, "/pkg", inv.requests[0].WorkingDirectory)
	assert.Empty(t, inv.requests[0].TargetLabel)
	assert.Empty(t, inv.requests[0].Arguments)
	assert.Equal(t, 1, summary.Invoked)
}

func TestDispatch_OnlyNonSourceTargetsInvokesNothing(t *testing.T) {
	inv := &fakeInvoker{}
	sys := pkgmodel.Target{Name: "CLib", Directory: "/pkg/Sources/CLib", Kind: pkgmodel.KindSystem}
	d := NewDispatcher(newTestPackage(t, sys), inv, nil)

	summary, err := d.Dispatch(context.Background(), []string{"--target", "CLib"})
	require.NoError(t, err)

	assert.Empty(t, inv.requests)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Invoked)
}

func TestDispatch_UnknownTarget(t *testing.T) {
	inv := &fakeInvoker{}
	rec := diagnostics.NewRecorder()
	d := NewDispatcher(newTestPackage(t, regular("Foo")), inv, rec)

	_, err := d.Dispatch(context.Background(), []string{"--target", "Nope"})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, pkgmodel.ErrUnknownTarget)
	assert.Empty(t, inv.requests)
	assert.Equal(t, 1, rec.Count(diagnostics.SeverityError))
}

func TestDispatch_MissingTargetValue(t *testing.T) {
	inv := &fakeInvoker{}
	d := NewDispatcher(newTestPackage(t, regular("Foo")), inv, nil)

	_, err := d.Dispatch(context.Background(), []string{"lint", "--target"})
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.ErrorIs(t, err, ErrMissingOptionValue)
	assert.Empty(t, inv.requests)
}

func TestDispatch_DuplicateTargetsRunOnce(t *testing.T) {
	inv := &fakeInvoker{}
	d := NewDispatcher(newTestPackage(t, regular("Foo"), regular("Bar")), inv, nil)

	_, err := d.Dispatch(context.Background(), []string{"--target", "Bar", "--target=Foo", "--target", "Bar"})
	require.NoError(t, err)

	require.Len(t, inv.requests, 2)
	assert.Equal(t, "Bar", inv.requests[0].TargetLabel)
	assert.Equal(t, "Foo", inv.requests[1].TargetLabel)
}

func TestDispatch_FailuresDoNotStopLaterTargets(t *testing.T) {
	inv := &fakeInvoker{
		InvokeFunc: func(req InvocationRequest) (InvocationOutcome, error) {
			if req.TargetLabel == "Foo" {
				return InvocationOutcome{TargetLabel: "Foo", Termination: TerminationExited, ExitStatus: 2}, nil
			}
			return InvocationOutcome{TargetLabel: req.TargetLabel, Termination: TerminationSignaled, Signal: "SIGKILL"}, nil
		},
	}
	d := NewDispatcher(newTestPackage(t, regular("Foo"), regular("Bar"), regular("Baz")), inv, nil)

	summary, err := d.Dispatch(context.Background(), []string{"lint"})
	require.NoError(t, err)

	assert.Len(t, inv.requests, 3)
	assert.Equal(t, 3, summary.Invoked)
	assert.Equal(t, 3, summary.Failed)
	assert.True(t, summary.HasFailures())
	require.Len(t, summary.Outcomes, 3)
}

func TestDispatch_LaunchErrorAborts(t *testing.T) {
	inv := &fakeInvoker{
		InvokeFunc: func(InvocationRequest) (InvocationOutcome, error) {
			return InvocationOutcome{}, newConfigurationError(ErrToolLaunch)
		},
	}
	rec := diagnostics.NewRecorder()
	d := NewDispatcher(newTestPackage(t, regular("Foo"), regular("Bar")), inv, rec)

	summary, err := d.Dispatch(context.Background(), []string{"lint"})
	assert.ErrorIs(t, err, ErrToolLaunch)
	assert.ErrorIs(t, err, ErrConfiguration)
	require.NotNil(t, summary)
	assert.Len(t, inv.requests, 1)
	assert.Zero(t, summary.Invoked)
	assert.Equal(t, 1, rec.Count(diagnostics.SeverityError))
}

func TestDispatch_RequestsOwnTheirArguments(t *testing.T) {
	var seen []string
	inv := &fakeInvoker{
		InvokeFunc: func(req InvocationRequest) (InvocationOutcome, error) {
			seen = append(seen, req.Arguments[0])
			req.Arguments[0] = "mutated"
			return InvocationOutcome{Termination: TerminationExited}, nil
		},
	}
	d := NewDispatcher(newTestPackage(t, regular("Foo"), regular("Bar")), inv, nil)

	args := []string{"lint", "--strict"}
	_, err := d.Dispatch(context.Background(), args)
	require.NoError(t, err)

	assert.Equal(t, []string{"lint", "lint"}, seen)
	assert.Equal(t, []string{"lint", "--strict"}, args)
}

func TestDispatch_ForwardsAnalyzeArguments(t *testing.T) {
	inv := &fakeInvoker{}
	d := NewDispatcher(newTestPackage(t, regular("Foo")), inv, nil)

	_, err := d.Dispatch(context.Background(), []string{"analyze", "--target", "Foo", "--compiler-log-path", "build.log"})
	require.NoError(t, err)

	require.Len(t, inv.requests, 1)
	assert.Equal(t, []string{"analyze", "--compiler-log-path", "build.log"}, inv.requests[0].Arguments)
}
