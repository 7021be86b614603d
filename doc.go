// DynamisAudio is a spatial audio engine for a game engine host: it turns
// per-emitter positions and a mutable acoustic scene (materials, rooms,
// portals) into rendered audio blocks, using a dual-pool voice budget, a
// fixed per-voice DSP chain, and a small mix-bus graph (spec §1, §2).
//
// A host constructs one Engine via New, spawns and releases emitters as
// sounds start and stop, mutates the acoustic scene and enqueues topology
// events as the world changes, and drives RenderBlock once per audio
// block from a single dedicated thread. See Config, Deps, and Engine for
// the construction and per-block surface; see the acoustic and api
// packages for the value types and host-collaborator interfaces this
// surface is built from.
package dynamisaudio
