// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package serializer writes command output as JSON, YAML or a table.
//
// JSON and YAML keep the structure and field tags of the value. The table
// format flattens nested structs, maps and slices into dotted keys, one
// sorted FIELD/VALUE row per leaf, with newlines escaped so multi-line
// values such as run scripts stay on one row.
//
// Usage:
//
//	w, err := serializer.NewFileWriter(serializer.FormatYAML, path, os.Stdout)
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//	return w.Serialize(ctx, plan)
//
// Files are created with mode 0600 because facts bundles can carry
// deployment secrets.
package serializer
