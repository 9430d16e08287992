package ftl

//go:generate mockgen -destination "mock_ftl_test.go" -package $GOPACKAGE -write_package_comment=false github.com/sarchlab/ftlsim/ftl BlockDevice,Hook

// A BlockDevice stores the payload of physical blocks. The runner addresses
// it in bytes: block i starts at i*BlockSize.
type BlockDevice interface {
	WriteAt(offset uint64, payload []byte) error
}
