// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/glaze/config"
	"github.com/devblok/glaze/dispatch"
	"github.com/devblok/glaze/glx"
	"github.com/devblok/glaze/glx/gl41"
	"github.com/devblok/glaze/model"
	"github.com/devblok/glaze/resource"
	"github.com/devblok/glaze/shader"
	"github.com/devblok/glaze/track"
)

func init() {
	runtime.LockOSThread()
}

// Essential globals
var (
	sdlWindow *sdl.Window
	glContext sdl.GLContext

	frameCounter int64
)

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
)

var constant float32

func newWindow(cfg config.RendererConfiguration) *sdl.Window {
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)

	window, err := sdl.CreateWindow("Glaze",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE)
	if err != nil {
		panic(err)
	}
	return window
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			panic(err)
		}
		if err := trace.Start(f); err != nil {
			panic(err)
		}
		defer trace.Stop()
	}

	godotenv.Load()
	configuration := config.FromEnv()
	if level, err := log.ParseLevel(configuration.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown log level: %s", configuration.LogLevel)
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		panic(err)
	}
	defer sdl.Quit()

	sdlWindow = newWindow(configuration.Renderer)
	defer sdlWindow.Destroy()

	{
		ctx, err := sdlWindow.GLCreateContext()
		if err != nil {
			panic(err)
		}
		glContext = ctx
		defer sdl.GLDeleteContext(glContext)

		// The context comes back current on this thread, give it up
		// so the queue worker can take it.
		if err := sdlWindow.GLMakeCurrent(nil); err != nil {
			panic(err)
		}
	}

	queue := dispatch.NewQueue()
	defer queue.Close()

	var funcs glx.Funcs
	if err := <-queue.Submit(func() error {
		if err := sdlWindow.GLMakeCurrent(glContext); err != nil {
			return err
		}
		sdl.GLSetSwapInterval(0)

		driver, err := gl41.New()
		if err != nil {
			return err
		}
		funcs = driver
		if configuration.Renderer.TraceCalls {
			funcs = glx.Trace(driver)
		}

		w, h := sdlWindow.GLGetDrawableSize()
		gl.Viewport(0, 0, w, h)
		return nil
	}); err != nil {
		panic(err)
	}

	mgr := resource.NewManager(queue)

	surface := mgr.New("surface/window", resource.KindSurface)
	claim := queue.NewClaim(func() error {
		return sdlWindow.GLMakeCurrent(nil)
	})
	if err := claim.Acquire(); err != nil {
		panic(err)
	}
	surface.AttachClaim(claim)
	surface.Publish(resource.Handle{ID: 1}, nil)

	assets := openAssets(configuration.Renderer.AssetArchive)
	defer assets.Close()

	mesh := assets.Mesh()
	vertexCount := int32(len(mesh))

	vertexBuffer := mgr.New("buffers/mesh", resource.KindBuffer)
	if err := <-mgr.Build(vertexBuffer, func() (resource.Handle, func(resource.Handle), error) {
		id, err := gl41.BuildBuffer(model.Interleave(mesh))
		if err != nil {
			return resource.Handle{}, nil, err
		}
		return resource.Handle{ID: id}, func(h resource.Handle) {
			gl41.DeleteBuffer(h.ID)
		}, nil
	}); err != nil {
		panic(err)
	}

	texture := mgr.New("textures/diffuse", resource.KindTexture)
	img := assets.Texture()
	if err := <-mgr.Build(texture, func() (resource.Handle, func(resource.Handle), error) {
		id, err := gl41.BuildTexture(img)
		if err != nil {
			return resource.Handle{}, nil, err
		}
		return resource.Handle{ID: id}, func(h resource.Handle) {
			gl41.DeleteTexture(h.ID)
		}, nil
	}); err != nil {
		panic(err)
	}

	src := programSource(configuration.Renderer.ShaderDirectory)
	programRes := mgr.New("programs/"+src.Name, resource.KindProgram)
	var attributes, uniforms []shader.Variable
	if err := <-mgr.Build(programRes, func() (resource.Handle, func(resource.Handle), error) {
		id, a, u, err := gl41.BuildProgram(src.Vertex, src.Fragment)
		if err != nil {
			return resource.Handle{}, nil, err
		}
		attributes, uniforms = a, u
		return resource.Handle{ID: id}, func(h resource.Handle) {
			gl41.DeleteProgram(h.ID)
		}, nil
	}); err != nil {
		panic(err)
	}

	program, err := shader.NewProgram(programRes, attributes, uniforms)
	if err != nil {
		panic(err)
	}

	tracker := track.NewTracker(funcs, mgr)
	if err := <-queue.Submit(func() error {
		if err := tracker.Activate(surface); err != nil {
			return err
		}
		if err := tracker.SetShader(program); err != nil {
			return err
		}
		return bindMesh(tracker, vertexBuffer, texture)
	}); err != nil {
		panic(err)
	}

	aspect := float32(configuration.Renderer.ScreenWidth) / float32(configuration.Renderer.ScreenHeight)
	view := glm.LookAtV(glm.Vec3{0, 0, 2}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0})
	projection := glm.Perspective(glm.DegToRad(60), aspect, 0.1, 10)

	timeService := config.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
	CounterLoop:
		for {
			select {
			case <-ctx.Done():
				break CounterLoop
			default:
				currentCount := atomic.LoadInt64(&frameCounter)
				atomic.StoreInt64(&frameCounter, 0)
				fmt.Printf("\r\033[2KFrame count: %d\tCGO calls: %d", currentCount*5, runtime.NumCgoCall())
				time.Sleep(200 * time.Millisecond)
				// 200 ms * 5 = 1s, therefore we need to mutiply the count
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Renderer loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		// Flip the texture on and off every few seconds to exercise
		// the bool uniform path.
		togglePeriod := int64(timeService.Fps()) * 3
		if togglePeriod == 0 {
			togglePeriod = 180
		}
		var frames int64
	DrawLoop:
		for {
			select {
			case <-ctx.Done():
				log.Println("Draw loop exited")
				break DrawLoop
			case <-timeService.FpsTicker().C:
				constant += 0.005
				frames++
				textured := (frames/togglePeriod)%2 == 0
				if err := queue.Do(ctx, func() error {
					return drawFrame(tracker, view, projection, textured, vertexCount)
				}); err != nil && !errors.Is(err, context.Canceled) {
					log.Errorf("draw: %s", err.Error())
				}
				atomic.AddInt64(&frameCounter, 1)
			}
		}
		wg.Done()
	}(ctx, &programSync)

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			var event sdl.Event
			for event = sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
						continue EventLoop
					}
				case *sdl.QuitEvent:
					cancel()
					continue EventLoop
				}
			}
		}
	}

	programSync.Wait()

	// Release in dependency order, the tracker first so the destroys
	// have no locks left to force.
	if err := <-queue.Submit(func() error {
		return tracker.Reset()
	}); err != nil {
		log.Errorf("reset: %s", err.Error())
	}
	<-vertexBuffer.Destroy()
	<-texture.Destroy()
	<-programRes.Destroy()
	<-surface.Destroy()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			panic(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic(err)
		}
	}
}

// bindMesh points the vertex attributes into the interleaved buffer
// and binds everything that stays constant between frames. Runs on
// the queue.
func bindMesh(tracker *track.Tracker, buffer, texture *resource.Resource) error {
	if err := tracker.BindAttributeBuffer("position", 0, &track.BufferPointer{
		Buffer: buffer,
		Offset: model.PosOffset(),
		Stride: model.Stride(),
		Size:   3,
	}); err != nil {
		return err
	}
	if err := tracker.BindAttributeBuffer("color", 0, &track.BufferPointer{
		Buffer: buffer,
		Offset: model.ColorOffset(),
		Stride: model.Stride(),
		Size:   4,
	}); err != nil {
		return err
	}
	if err := tracker.BindAttributeBuffer("uv", 0, &track.BufferPointer{
		Buffer: buffer,
		Offset: model.UVOffset(),
		Stride: model.Stride(),
		Size:   2,
	}); err != nil {
		return err
	}
	if err := tracker.BindAttribute("shade", 0, 1.0); err != nil {
		return err
	}
	if err := tracker.SetTexture("diffuse", texture); err != nil {
		return err
	}
	return tracker.SetFloat("intensity", 1.0)
}

// drawFrame pushes the per-frame state and issues the draw. Runs on
// the queue.
func drawFrame(tracker *track.Tracker, view, projection glm.Mat4, textured bool, vertexCount int32) error {
	gl.ClearColor(0.1, 0.1, 0.12, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if err := tracker.SetMat4("model", glm.HomogRotate3D(constant, glm.Vec3{0, 0, 1})); err != nil {
		return err
	}
	if err := tracker.SetMat4("view", view); err != nil {
		return err
	}
	if err := tracker.SetMat4("projection", projection); err != nil {
		return err
	}
	if err := tracker.SetBool("textured", textured); err != nil {
		return err
	}

	gl.DrawArrays(gl.TRIANGLES, 0, vertexCount)
	sdlWindow.GLSwap()
	return nil
}
