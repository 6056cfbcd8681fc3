package chain

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// Instruction and account names as they appear in the program IDL.
const (
	instructionAddGif        = "addGif"
	instructionStartStuffOff = "startStuffOff"
	accountBaseAccount       = "BaseAccount"
)

// IDL is the Anchor interface definition the client consumes at startup.
// Only the pieces this client dispatches on are modeled; unknown fields are
// ignored so a regenerated IDL with extra metadata still parses.
type IDL struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []IDLInstruction `json:"instructions"`
	Accounts     []IDLAccount     `json:"accounts"`
}

type IDLInstruction struct {
	Name     string           `json:"name"`
	Accounts []IDLAccountMeta `json:"accounts"`
	Args     []IDLField       `json:"args"`
}

type IDLAccountMeta struct {
	Name     string `json:"name"`
	IsMut    bool   `json:"isMut"`
	IsSigner bool   `json:"isSigner"`
}

type IDLField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type IDLAccount struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

var (
	parseIDLOnce sync.Once
	parsedIDL    *IDL
	parseIDLErr  error
)

// loadIDL parses the embedded program IDL exactly once per process.
func loadIDL() (*IDL, error) {
	parseIDLOnce.Do(func() {
		parsedIDL, parseIDLErr = ParseIDL([]byte(portalIDL))
	})
	return parsedIDL, parseIDLErr
}

func ParseIDL(raw []byte) (*IDL, error) {
	var idl IDL
	if err := json.Unmarshal(raw, &idl); err != nil {
		return nil, fmt.Errorf("parse idl: %w", err)
	}
	if idl.Name == "" || len(idl.Instructions) == 0 {
		return nil, fmt.Errorf("parse idl: missing name or instructions")
	}
	return &idl, nil
}

func (i *IDL) Instruction(name string) (IDLInstruction, bool) {
	for _, inst := range i.Instructions {
		if inst.Name == name {
			return inst, true
		}
	}
	return IDLInstruction{}, false
}

// InstructionDiscriminator derives the 8-byte Anchor instruction tag. The
// IDL carries camelCase names while Anchor hashes the Rust snake_case form.
func (i *IDL) InstructionDiscriminator(name string) [8]byte {
	return anchorDiscriminator("global", camelToSnake(name))
}

// AccountDiscriminator derives the 8-byte tag prefixed to account data.
func (i *IDL) AccountDiscriminator(name string) [8]byte {
	return anchorDiscriminator("account", name)
}

func anchorDiscriminator(namespace, name string) [8]byte {
	sum := sha256.Sum256([]byte(namespace + ":" + name))
	var disc [8]byte
	copy(disc[:], sum[:8])
	return disc
}

func camelToSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// portalIDL is the interface definition of the deployed GIF program,
// distributed with the build alongside the base-account key pair.
const portalIDL = `{
  "version": "0.1.0",
  "name": "gif_portal",
  "instructions": [
    {
      "name": "startStuffOff",
      "accounts": [
        { "name": "baseAccount", "isMut": true, "isSigner": true },
        { "name": "user", "isMut": true, "isSigner": true },
        { "name": "systemProgram", "isMut": false, "isSigner": false }
      ],
      "args": []
    },
    {
      "name": "addGif",
      "accounts": [
        { "name": "baseAccount", "isMut": true, "isSigner": false },
        { "name": "user", "isMut": true, "isSigner": true }
      ],
      "args": [
        { "name": "gifLink", "type": "string" }
      ]
    }
  ],
  "accounts": [
    {
      "name": "BaseAccount",
      "type": {
        "kind": "struct",
        "fields": [
          { "name": "totalGifs", "type": "u64" },
          { "name": "gifList", "type": { "vec": { "defined": "ItemStruct" } } }
        ]
      }
    }
  ],
  "types": [
    {
      "name": "ItemStruct",
      "type": {
        "kind": "struct",
        "fields": [
          { "name": "gifLink", "type": "string" },
          { "name": "userAddress", "type": "publicKey" }
        ]
      }
    }
  ]
}`
