package catchunks

import (
	"time"

	enc "github.com/Tankmaster48/ndnd-catchunks/std/encoding"
	"github.com/Tankmaster48/ndnd-catchunks/std/ndn"
)

// MetadataKeyword is the RDR (NDN realtime data retrieval) well-known
// keyword component appended to a prefix to form the discovery Interest's
// name, e.g. /prefix/32=metadata.
var MetadataKeyword = enc.NewKeywordComponent("metadata")

// DiscoverOptions configures VersionDiscovery.
type DiscoverOptions struct {
	Disabled            bool
	MaxRetriesOnTimeoutOrNack int
	Lifetime            time.Duration
	Convention          NamingConvention
}

// VersionDiscovery resolves a caller-supplied prefix to a versioned name,
// per spec.md §4.3.
type VersionDiscovery struct {
	engine ndn.Engine
	prefix enc.Name
	opts   DiscoverOptions

	onSuccess func(versionedName enc.Name)
	onFailure func(err error)

	fetcher *DataFetcher
	done    bool
}

// NewVersionDiscovery constructs a discovery run against prefix. Call
// Start to begin.
func NewVersionDiscovery(engine ndn.Engine, prefix enc.Name, opts DiscoverOptions,
	onSuccess func(versionedName enc.Name), onFailure func(err error)) *VersionDiscovery {
	return &VersionDiscovery{
		engine:    engine,
		prefix:    prefix,
		opts:      opts,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
}

// Start runs the DisabledOrAlreadyVersioned check, then Querying if needed.
func (d *VersionDiscovery) Start() {
	if d.opts.Disabled || hasTrailingVersion(d.prefix, d.opts.Convention) {
		d.finishSuccess(d.prefix)
		return
	}

	metadataName := d.prefix.Append(MetadataKeyword)
	d.fetcher = NewDataFetcher(d.engine, metadataName, DataFetcherOptions{
		MaxNackRetries:    d.opts.MaxRetriesOnTimeoutOrNack,
		MaxTimeoutRetries: d.opts.MaxRetriesOnTimeoutOrNack,
		MustBeFresh:       true,
		Lifetime:          d.opts.Lifetime,
	}, d.onMetadata, d.onMetadataFailure)
	d.fetcher.Start()
}

// Cancel stops an in-flight discovery fetch.
func (d *VersionDiscovery) Cancel() {
	if d.fetcher != nil {
		d.fetcher.Cancel()
	}
}

func (d *VersionDiscovery) onMetadata(data ndn.Data, raw enc.Wire) {
	versionedName, err := parseMetadataPayload(data.Content())
	if err != nil {
		d.finishFailure(ErrDiscoveryFailed{Reason: err.Error()})
		return
	}
	if _, ok := d.opts.Convention.ToVersion(versionedName.At(-1)); !ok {
		d.finishFailure(ErrDiscoveryFailed{Reason: "invalid versioned name"})
		return
	}
	d.finishSuccess(versionedName)
}

func (d *VersionDiscovery) onMetadataFailure(err error) {
	d.finishFailure(ErrDiscoveryFailed{Reason: err.Error()})
}

func (d *VersionDiscovery) finishSuccess(versionedName enc.Name) {
	if d.done {
		return
	}
	d.done = true
	d.onSuccess(versionedName)
}

func (d *VersionDiscovery) finishFailure(err error) {
	if d.done {
		return
	}
	d.done = true
	d.onFailure(err)
}

func hasTrailingVersion(name enc.Name, conv NamingConvention) bool {
	if len(name) == 0 {
		return false
	}
	_, ok := conv.ToVersion(name.At(-1))
	return ok
}

// parseMetadataPayload decodes a metadata Data's content: the wire-encoded
// Name of the versioned content, as a single TLV-Name block.
func parseMetadataPayload(content enc.Wire) (enc.Name, error) {
	var buf []byte
	for _, b := range content {
		buf = append(buf, b...)
	}
	name, err := enc.NameFromBytes(buf)
	if err != nil {
		return nil, err
	}
	return name, nil
}
