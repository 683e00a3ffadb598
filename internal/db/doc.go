// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db provides the data access layer for Gatewarden. It abstracts the
// underlying database (SQLite, PostgreSQL, MySQL) behind a consistent Store
// interface so the rest of the application can interact with persistence in
// a uniform way.
package db
