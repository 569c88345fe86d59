package ast

type (
	ScriptID  uint32
	DeclID    uint32
	ExprID    uint32
	PayloadID uint32
)

const (
	NoScriptID  ScriptID  = 0
	NoDeclID    DeclID    = 0
	NoExprID    ExprID    = 0
	NoPayloadID PayloadID = 0
)

func (id ScriptID) IsValid() bool  { return id != NoScriptID }
func (id DeclID) IsValid() bool    { return id != NoDeclID }
func (id ExprID) IsValid() bool    { return id != NoExprID }
func (id PayloadID) IsValid() bool { return id != NoPayloadID }
