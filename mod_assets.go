package particlefx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"os"
	"path"

	"github.com/gekko3d/particlefx/particles/core"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type AssetId string

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetDecode   = errors.New("asset decode failed")
)

// AssetError reports which texture source failed. Err matches ErrAssetNotFound
// or ErrAssetDecode with errors.Is.
type AssetError struct {
	Source string
	Err    error
}

func (e *AssetError) Error() string { return fmt.Sprintf("asset %s: %v", e.Source, e.Err) }
func (e *AssetError) Unwrap() error { return e.Err }

// TextureAsset is a decoded texture held in RGBA form.
type TextureAsset struct {
	Id     AssetId
	Source string
	Image  *image.RGBA
}

func (t *TextureAsset) Width() int  { return t.Image.Bounds().Dx() }
func (t *TextureAsset) Height() int { return t.Image.Bounds().Dy() }

// AssetServer decodes textures from a filesystem or from inline bytes and
// hands out ids usable as core.TextureHandle.
type AssetServer struct {
	root     fs.FS
	textures map[AssetId]*TextureAsset
	byKey    map[string]AssetId
}

var _ core.TextureLoader = (*AssetServer)(nil)

func NewAssetServer(root fs.FS) *AssetServer {
	return &AssetServer{
		root:     root,
		textures: make(map[AssetId]*TextureAsset),
		byKey:    make(map[string]AssetId),
	}
}

// Root is the filesystem textures and effect definitions are read from.
func (server *AssetServer) Root() fs.FS { return server.root }

// LoadTexture resolves src, decoding it at most once per file name or inline
// payload. Inline data wins over the file name.
func (server *AssetServer) LoadTexture(src core.TextureSource) (core.TextureHandle, error) {
	key := textureKey(src)
	if id, ok := server.byKey[key]; ok {
		return core.TextureHandle(id), nil
	}

	var (
		raw []byte
		err error
	)
	if len(src.Data) > 0 {
		raw = src.Data
	} else {
		if server.root == nil {
			return "", &AssetError{Source: src.Name, Err: fmt.Errorf("%w: no asset root", ErrAssetNotFound)}
		}
		raw, err = fs.ReadFile(server.root, path.Clean(src.Name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %w", ErrAssetNotFound, err)
			}
			return "", &AssetError{Source: src.String(), Err: err}
		}
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", &AssetError{Source: src.String(), Err: fmt.Errorf("%w: %w", ErrAssetDecode, err)}
	}

	id := server.CreateTexture(src.String(), img)
	server.byKey[key] = id
	return core.TextureHandle(id), nil
}

// textureKey identifies inline data by content, since definitions often reuse
// one file name for different embedded images.
func textureKey(src core.TextureSource) string {
	if len(src.Data) > 0 {
		sum := sha256.Sum256(src.Data)
		return "inline:" + hex.EncodeToString(sum[:])
	}
	return "file:" + path.Clean(src.Name)
}

// CreateTexture stores img under a fresh id, converting it to RGBA with its
// origin at 0,0.
func (server *AssetServer) CreateTexture(source string, img image.Image) AssetId {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	id := makeAssetId()
	server.textures[id] = &TextureAsset{
		Id:     id,
		Source: source,
		Image:  rgba,
	}
	return id
}

func (server *AssetServer) Texture(id AssetId) (*TextureAsset, bool) {
	tex, ok := server.textures[id]
	return tex, ok
}

// TextureWidth is 0 for unknown handles.
func (server *AssetServer) TextureWidth(h core.TextureHandle) int {
	if tex, ok := server.textures[AssetId(h)]; ok {
		return tex.Width()
	}
	return 0
}

// TexturePixels feeds the GPU renderer.
func (server *AssetServer) TexturePixels(h core.TextureHandle) (*image.RGBA, error) {
	tex, ok := server.textures[AssetId(h)]
	if !ok {
		return nil, &AssetError{Source: string(h), Err: ErrAssetNotFound}
	}
	return tex.Image, nil
}

// Unload forgets a texture. Handles to it stop resolving.
func (server *AssetServer) Unload(id AssetId) {
	delete(server.textures, id)
	for key, other := range server.byKey {
		if other == id {
			delete(server.byKey, key)
		}
	}
}

// AssetServerModule installs an AssetServer rooted at Root, or at the
// directory Dir when Root is nil. The working directory is the fallback.
type AssetServerModule struct {
	Root fs.FS
	Dir  string
}

func (mod AssetServerModule) Install(app *App, cmd *Commands) {
	root := mod.Root
	if root == nil {
		dir := mod.Dir
		if dir == "" {
			dir = "."
		}
		root = os.DirFS(dir)
	}
	app.addResources(NewAssetServer(root))
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
