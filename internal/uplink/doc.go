// Package uplink multiplexes the audio and motion streams into tagged
// frames and drives the acquisition-transmission loop: pull audio, pull
// motion, encode and send both in order, tearing the connection down on
// any transport failure.
package uplink
