package types

// TransactionSource says where an unsigned submission came from.
type TransactionSource uint8

const (
	// SourceLocal is a submission authored by this node's own workers.
	SourceLocal TransactionSource = iota + 1
	// SourceInBlock is a submission being re-validated during block execution.
	SourceInBlock
	// SourceExternal is a submission gossiped by a peer or an RPC client.
	SourceExternal
)

func (s TransactionSource) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceInBlock:
		return "in-block"
	case SourceExternal:
		return "external"
	}
	return "unknown"
}
