// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025 Datadog, Inc.

// Package version holds the release tag of this module.
package version

// Tag specifies the current release tag. It needs to be manually
// updated before each release.
const Tag = "v0.3.0"
