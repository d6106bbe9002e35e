package extraction

// Registry maps strategy names to ready strategies. remote may be nil when
// no text-generation service is configured; the chain then runs local only.
func Registry(remote *RemoteStrategy, local *LocalStrategy) map[string]Strategy {
	out := map[string]Strategy{}
	var chain []Strategy
	if remote != nil {
		out[NameRemote] = remote
		chain = append(chain, remote)
	}
	if local != nil {
		out[NameLocal] = local
		chain = append(chain, local)
	}
	if len(chain) > 0 {
		out[NameChain] = NewChain(chain...)
	}
	return out
}
