// SPDX-License-Identifier: MPL-2.0

// Package launch decides what a pipeline run executes and with which inputs.
//
// Three independent components are consumed by every run invocation:
//
//   - Resolver turns a pipeline identifier ("-", a local script or project
//     directory, or a remote project name) into a PipelineReference.
//   - NameAllocator validates a requested run name or generates a fresh one.
//   - ParamBinder merges a params file with inline --key=value options into
//     an ordered, typed ParameterMap.
//
// Failures are reported as *InvalidInvocationError, *RepositoryError or
// *ParseError, matching ErrInvalidInvocation, ErrRepository and ErrParse
// respectively. Nothing in this package exits the process.
package launch
