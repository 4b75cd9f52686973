// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"slices"

	"github.com/samber/oops"

	"github.com/holomush/hookhost/pkg/plugin"
)

// ReservedNames are subcommand names owned by the host CLI.
var ReservedNames = []string{"help", "completion", "plugins", "schema", "version"}

// IsReserved reports whether name belongs to the host CLI.
func IsReserved(name string) bool {
	return slices.Contains(ReservedNames, name)
}

// ValidateName validates a subcommand or post-command name.
func ValidateName(name, kind string) error {
	if err := plugin.ValidateName(name); err != nil {
		return oops.Code(CodeInvalidName).
			With("kind", kind).
			With("name", name).
			Wrapf(err, "invalid %s name", kind)
	}
	return nil
}
