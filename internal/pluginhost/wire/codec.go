// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 buildplugin Contributors

package wire

import (
	"encoding/json"

	"github.com/samber/oops"
)

// envelope is the on-wire shape of every message: a type discriminator
// plus the variant's own fields inlined as the payload. Kept private so
// callers only ever see HostToPlugin/PluginToHost values.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const (
	typeCreateBuildToolCommands             = "createBuildToolCommands"
	typeCreateXcodeProjectBuildToolCommands = "createXcodeProjectBuildToolCommands"
	typePerformCommand                      = "performCommand"
	typePerformXcodeProjectCommand          = "performXcodeProjectCommand"
	typeBuildOperationResponse              = "buildOperationResponse"
	typeTestOperationResponse               = "testOperationResponse"
	typeSymbolGraphResponse                 = "symbolGraphResponse"
	typeErrorResponse                       = "errorResponse"

	typeEmitDiagnostic        = "emitDiagnostic"
	typeEmitProgress          = "emitProgress"
	typeDefineBuildCommand    = "defineBuildCommand"
	typeDefinePrebuildCommand = "definePrebuildCommand"
	typeBuildOperationRequest = "buildOperationRequest"
	typeTestOperationRequest  = "testOperationRequest"
	typeSymbolGraphRequest    = "symbolGraphRequest"
)

// EncodeHostToPlugin marshals a host→plugin message into its envelope
// form. Pure: no I/O, no framing.
func EncodeHostToPlugin(msg HostToPlugin) ([]byte, error) {
	typ, err := hostToPluginType(msg)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, oops.Wrapf(err, "marshal host-to-plugin payload")
	}
	return json.Marshal(envelope{Type: typ, Payload: payload})
}

// DecodeHostToPlugin unmarshals an envelope back into a HostToPlugin
// value. Used by test simulators of the plugin side (Testable Property 1
// and 6).
func DecodeHostToPlugin(data []byte) (HostToPlugin, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, oops.Wrapf(err, "unmarshal host-to-plugin envelope")
	}
	switch env.Type {
	case typeCreateBuildToolCommands:
		var m CreateBuildToolCommands
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeCreateXcodeProjectBuildToolCommands:
		var m CreateXcodeProjectBuildToolCommands
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typePerformCommand:
		var m PerformCommand
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typePerformXcodeProjectCommand:
		var m PerformXcodeProjectCommand
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeBuildOperationResponse:
		var m BuildOperationResponse
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeTestOperationResponse:
		var m TestOperationResponse
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeSymbolGraphResponse:
		var m SymbolGraphResponse
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeErrorResponse:
		var m ErrorResponse
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	default:
		return nil, oops.Errorf("unknown host-to-plugin message type %q", env.Type)
	}
}

// EncodePluginToHost marshals a plugin→host message into its envelope
// form.
func EncodePluginToHost(msg PluginToHost) ([]byte, error) {
	typ, err := pluginToHostType(msg)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, oops.Wrapf(err, "marshal plugin-to-host payload")
	}
	return json.Marshal(envelope{Type: typ, Payload: payload})
}

// DecodePluginToHost unmarshals an envelope back into a PluginToHost
// value. This is the decode direction the Invocation Session actually
// runs against inbound frames.
func DecodePluginToHost(data []byte) (PluginToHost, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, oops.Wrapf(err, "unmarshal plugin-to-host envelope")
	}
	switch env.Type {
	case typeEmitDiagnostic:
		var m EmitDiagnostic
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeEmitProgress:
		var m EmitProgress
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeDefineBuildCommand:
		var m DefineBuildCommand
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeDefinePrebuildCommand:
		var m DefinePrebuildCommand
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeBuildOperationRequest:
		var m BuildOperationRequest
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeTestOperationRequest:
		var m TestOperationRequest
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	case typeSymbolGraphRequest:
		var m SymbolGraphRequest
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			return nil, oops.Wrapf(err, "unmarshal %s", env.Type)
		}
		return m, nil
	default:
		return nil, oops.Errorf("unknown plugin-to-host message type %q", env.Type)
	}
}

func hostToPluginType(msg HostToPlugin) (string, error) {
	switch msg.(type) {
	case CreateBuildToolCommands:
		return typeCreateBuildToolCommands, nil
	case CreateXcodeProjectBuildToolCommands:
		return typeCreateXcodeProjectBuildToolCommands, nil
	case PerformCommand:
		return typePerformCommand, nil
	case PerformXcodeProjectCommand:
		return typePerformXcodeProjectCommand, nil
	case BuildOperationResponse:
		return typeBuildOperationResponse, nil
	case TestOperationResponse:
		return typeTestOperationResponse, nil
	case SymbolGraphResponse:
		return typeSymbolGraphResponse, nil
	case ErrorResponse:
		return typeErrorResponse, nil
	default:
		return "", oops.Errorf("unhandled host-to-plugin message type %T", msg)
	}
}

func pluginToHostType(msg PluginToHost) (string, error) {
	switch msg.(type) {
	case EmitDiagnostic:
		return typeEmitDiagnostic, nil
	case EmitProgress:
		return typeEmitProgress, nil
	case DefineBuildCommand:
		return typeDefineBuildCommand, nil
	case DefinePrebuildCommand:
		return typeDefinePrebuildCommand, nil
	case BuildOperationRequest:
		return typeBuildOperationRequest, nil
	case TestOperationRequest:
		return typeTestOperationRequest, nil
	case SymbolGraphRequest:
		return typeSymbolGraphRequest, nil
	default:
		return "", oops.Errorf("unhandled plugin-to-host message type %T", msg)
	}
}
